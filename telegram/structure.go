package telegram

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
)

// Field is one decoded child of a structure: the wire type tag and the raw
// textual value.
type Field struct {
	Tag string `json:"tag"`
	Raw string `json:"value"`
}

// Structure is the input handed over by the protocol layer. Qty is the
// declared field count and is the first matching signal.
type Structure struct {
	Qty    int     `json:"qty"`
	Fields []Field `json:"fields"`
}

// Tags returns the ordered tag sequence.
func (s Structure) Tags() []string {
	tags := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		tags[i] = f.Tag
	}
	return tags
}

// ParseStructure reads the listener's XML rendering of a telegram:
//
//	<Structure Qty="0002">
//	  <OctetString Value="414243" />
//	  <UInt16 Value="00E6" />
//	</Structure>
//
// Only direct children of the root are fields. Comments and processing
// instructions are ignored.
func ParseStructure(data []byte) (Structure, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	root, err := nextStart(dec)
	if err != nil {
		return Structure{}, errors.WrapInvalid(err, "telegram", "ParseStructure", "read root element")
	}
	if root.Name.Local != "Structure" {
		return Structure{}, errors.WrapInvalid(
			fmt.Errorf("root element is %q, want Structure", root.Name.Local),
			"telegram", "ParseStructure", "check root element")
	}

	var s Structure
	qty, ok := attr(root, "Qty")
	if !ok {
		return Structure{}, errors.WrapInvalid(
			fmt.Errorf("missing Qty attribute"), "telegram", "ParseStructure", "read field count")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(qty), 16, 32)
	if err != nil {
		return Structure{}, errors.WrapInvalid(
			fmt.Errorf("Qty %q: %w", qty, err), "telegram", "ParseStructure", "read field count")
	}
	s.Qty = int(n)

	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return Structure{}, errors.WrapInvalid(err, "telegram", "ParseStructure", "read fields")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				raw, _ := attr(t, "Value")
				s.Fields = append(s.Fields, Field{Tag: t.Name.Local, Raw: raw})
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				return s, nil
			}
			depth--
		}
	}
}

func nextStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, fmt.Errorf("empty document")
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
