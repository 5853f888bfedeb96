package profile

import (
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
	"github.com/AndyTempel/victron-dlms-gird-meter/telegrams"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testDefault = `
version: "1.0"
transformations:
  - type: DIVIDE
    key: VOLTAGE
    value: 10
`

const testMeterA = `
version: "1.0"
info:
  id: meter-a
  name: Meter A
  distributer: Test
  country: SI
  supported_interfaces: [P1]
  multiple_telegrams: true
  required_keys: [SERIAL]
telegrams:
  - name: short
    length: 2
    contents:
      - {position: 0, name: SERIAL, type: OctetString}
      - {position: 1, name: VOLTAGE, type: UInt16}
  - name: long_a
    length: 3
    contents:
      - {position: 0, name: SERIAL, type: OctetString}
      - {position: 1, name: ENERGY, type: UInt32}
      - {position: 2, name: STATE, type: Enum}
  - name: long_b
    length: 3
    contents:
      - {position: 0, name: SERIAL, type: OctetString}
      - {position: 1, name: CURRENT, type: UInt16}
      - {position: 2, name: CLOSED, type: Boolean}
`

const testMeterB = `
version: "2.0"
info:
  id: meter-b
  name: Meter B
  distributer: Test
  country: SI
  supported_interfaces: [P1]
  multiple_telegrams: false
  required_keys: []
telegrams:
  - name: only
    length: 1
    contents:
      - {position: 0, name: SERIAL, type: OctetString}
transformations:
  - type: MULTIPLY_IF_KEY
    key: DIRECTION
    operand: EQ
    value: 1
    transform_key: POWER
    multiplier: -1
  - type: TO_STRING
    key: SERIAL
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"default.yml":  {Data: []byte(testDefault)},
		"meter-a.yml":  {Data: []byte(testMeterA)},
		"meter-b.yaml": {Data: []byte(testMeterB)},
		"notes.txt":    {Data: []byte("ignored")},
		"no-id.yml":    {Data: []byte("version: \"1.0\"\n")},
	}
}

func TestLoadFS(t *testing.T) {
	cat, err := LoadFS(testFS(), quietLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"meter-a", "meter-b"}, cat.IDs())
	assert.True(t, cat.Has("meter-a"))
	assert.False(t, cat.Has("no-id"))
}

func TestLoadFS_WithoutDefault(t *testing.T) {
	fsys := testFS()
	delete(fsys, "default.yml")

	cat, err := LoadFS(fsys, quietLogger())
	require.NoError(t, err)

	p, err := cat.Select("meter-a")
	require.NoError(t, err)
	assert.Empty(t, p.Rules)
}

func TestLoadFS_DuplicateID(t *testing.T) {
	fsys := testFS()
	fsys["copy.yml"] = &fstest.MapFile{Data: []byte(testMeterB)}

	_, err := LoadFS(fsys, quietLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoadFS_InvalidYAML(t *testing.T) {
	fsys := testFS()
	fsys["broken.yml"] = &fstest.MapFile{Data: []byte("info: [unterminated")}

	_, err := LoadFS(fsys, quietLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestSelect_MergesDefaultDocument(t *testing.T) {
	cat, err := LoadFS(testFS(), quietLogger())
	require.NoError(t, err)

	// meter-a declares no transformations, so the default list survives.
	a, err := cat.Select("meter-a")
	require.NoError(t, err)
	require.Len(t, a.Rules, 1)
	assert.Equal(t, RuleDivide, a.Rules[0].Kind)
	assert.Equal(t, "VOLTAGE", a.Rules[0].Key)
	assert.Equal(t, scalar.Int(10), a.Rules[0].Value)

	// meter-b replaces the list wholesale.
	b, err := cat.Select("meter-b")
	require.NoError(t, err)
	require.Len(t, b.Rules, 2)
	assert.Equal(t, RuleMultiplyIfKey, b.Rules[0].Kind)
	assert.Equal(t, OperandEQ, b.Rules[0].Operand)
	assert.Equal(t, "POWER", b.Rules[0].TransformKey)
	assert.Equal(t, scalar.Int(-1), b.Rules[0].Multiplier)
	assert.Equal(t, RuleToString, b.Rules[1].Kind)
	assert.Equal(t, "2.0", b.Version)
}

func TestSelect_UnknownProfile(t *testing.T) {
	cat, err := LoadFS(testFS(), quietLogger())
	require.NoError(t, err)

	_, err = cat.Select("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProfile)
	assert.True(t, errors.IsFatal(err))
	assert.Contains(t, err.Error(), "meter-a, meter-b")
}

func TestSelect_InvalidRule(t *testing.T) {
	tests := []struct {
		name string
		rule string
	}{
		{"unknown type", "{type: SQUARE, key: X}"},
		{"missing key", "{type: TO_FLOAT}"},
		{"missing value", "{type: MULTIPLY, key: X}"},
		{"unknown operand", "{type: MULTIPLY_IF_KEY, key: X, operand: ABOUT, value: 1, transform_key: Y, multiplier: 2}"},
		{"missing transform key", "{type: MULTIPLY_IF_KEY, key: X, operand: EQ, value: 1, multiplier: 2}"},
		{"missing multiplier", "{type: MULTIPLY_IF_KEY, key: X, operand: EQ, value: 1, transform_key: Y}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "info: {id: bad}\ntelegrams: []\ntransformations:\n  - " + tt.rule + "\n"
			cat, err := LoadFS(fstest.MapFS{"bad.yml": {Data: []byte(doc)}}, quietLogger())
			require.NoError(t, err)

			_, err = cat.Select("bad")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestSelect_UnknownFieldTypeIsKept(t *testing.T) {
	doc := `
info: {id: odd}
telegrams:
  - name: odd
    length: 2
    contents:
      - {position: 0, name: SERIAL, type: OctetString}
      - {position: 1, name: WEIRD, type: Float64}
`
	cat, err := LoadFS(fstest.MapFS{"odd.yml": {Data: []byte(doc)}}, quietLogger())
	require.NoError(t, err)

	p, err := cat.Select("odd")
	require.NoError(t, err)

	def, ok := p.Definition("odd")
	require.True(t, ok)
	f, ok := def.Field(1)
	require.True(t, ok)
	assert.Equal(t, FieldUnknown, f.Type)
	assert.Equal(t, "Float64", f.Tag)
	assert.Equal(t, []string{"OctetString", "Float64"}, def.Tags())
}

func TestSelect_EmbeddedProfiles(t *testing.T) {
	cat, err := LoadFS(telegrams.FS, quietLogger())
	require.NoError(t, err)
	require.Contains(t, cat.IDs(), "si-sodo-reduxi")

	for _, id := range cat.IDs() {
		t.Run(id, func(t *testing.T) {
			p, err := cat.Select(id)
			require.NoError(t, err)
			assert.Equal(t, id, p.ID())
			assert.NotEmpty(t, p.Definitions)
		})
	}
}
