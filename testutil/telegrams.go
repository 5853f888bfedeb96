package testutil

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// XMLField is one child of a test structure.
type XMLField struct {
	Tag   string
	Value string
}

// StructureXML renders fields the way the DLMS listener does. Qty is the
// number of fields in hex.
func StructureXML(fields ...XMLField) []byte {
	return StructureXMLWithQty(len(fields), fields...)
}

// StructureXMLWithQty renders fields with an explicit declared count.
func StructureXMLWithQty(qty int, fields ...XMLField) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "<Structure Qty=\"%04X\" >\n", qty)
	for _, f := range fields {
		fmt.Fprintf(&b, "<%s Value=\"%s\" />\n", f.Tag, f.Value)
	}
	b.WriteString("</Structure>\n")
	return []byte(b.String())
}

// Octet returns an OctetString field holding s.
func Octet(s string) XMLField {
	return XMLField{Tag: "OctetString", Value: strings.ToUpper(hex.EncodeToString([]byte(s)))}
}

// U32 returns a UInt32 field.
func U32(v uint32) XMLField { return XMLField{Tag: "UInt32", Value: fmt.Sprintf("%08X", v)} }

// U16 returns a UInt16 field.
func U16(v uint16) XMLField { return XMLField{Tag: "UInt16", Value: fmt.Sprintf("%04X", v)} }

// U8 returns a UInt8 field.
func U8(v uint8) XMLField { return XMLField{Tag: "UInt8", Value: fmt.Sprintf("%02X", v)} }

// Enum returns an Enum field.
func Enum(v uint8) XMLField { return XMLField{Tag: "Enum", Value: fmt.Sprintf("%02X", v)} }

// Boolean returns a Boolean field.
func Boolean(v bool) XMLField {
	if v {
		return XMLField{Tag: "Boolean", Value: "True"}
	}
	return XMLField{Tag: "Boolean", Value: "False"}
}

// ReduxiSerial is the serial number carried by ReduxiXML.
const ReduxiSerial = "SN12345"

// ReduxiXML is a push telegram of the si-sodo-reduxi profile:
// L1 imports 2000 W at 230.1 V/10 A, L2 imports 1500 W at 229.8 V/7 A and
// L3 exports 500 W at 231.0 V/2.5 A.
func ReduxiXML() []byte {
	return StructureXML(
		Octet(ReduxiSerial),
		U32(1234567), // energy import, Wh
		U32(2345),    // energy export, Wh
		U32(2000), U32(0),
		U32(1500), U32(0),
		U32(0), U32(500),
		U16(2301), U16(2298), U16(2310),
		U16(1000), U16(700), U16(250),
		U16(5001),
		Enum(1),
	)
}
