package profile

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyTempel/victron-dlms-gird-meter/telegrams"
)

func issueStrings(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.String()
	}
	return out
}

func TestValidator_EmbeddedProfiles(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	issues, err := v.ValidateFS(telegrams.FS)
	require.NoError(t, err)
	assert.Empty(t, issueStrings(issues))
}

func TestValidator_TestDocuments(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	fsys := testFS()
	delete(fsys, "no-id.yml")
	issues, err := v.ValidateFS(fsys)
	require.NoError(t, err)
	assert.Empty(t, issueStrings(issues))
}

func TestValidator_Rules(t *testing.T) {
	valid := testMeterA

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "numeric version",
			doc:  strings.Replace(valid, `version: "1.0"`, `version: 1.0`, 1),
			want: "version",
		},
		{
			name: "missing country",
			doc:  strings.Replace(valid, "  country: SI\n", "", 1),
			want: "country",
		},
		{
			name: "unknown field type",
			doc:  strings.Replace(valid, "type: Boolean", "type: Float64", 1),
			want: "telegrams.2.contents.2.type",
		},
		{
			name: "multiple telegrams not declared",
			doc:  strings.Replace(valid, "multiple_telegrams: true", "multiple_telegrams: false", 1),
			want: "info.multiple_telegrams",
		},
		{
			name: "length mismatch",
			doc:  strings.Replace(valid, "length: 2", "length: 4", 1),
			want: "telegrams.0.length",
		},
		{
			name: "position gap",
			doc:  strings.Replace(valid, "{position: 1, name: VOLTAGE", "{position: 5, name: VOLTAGE", 1),
			want: "telegrams.0.contents.1.position",
		},
		{
			name: "duplicate position",
			doc:  strings.Replace(valid, "{position: 1, name: VOLTAGE", "{position: 0, name: VOLTAGE", 1),
			want: "telegrams.0.contents.1.position: duplicate position 0",
		},
		{
			name: "unknown transformation",
			doc:  valid + "transformations:\n  - {type: SQUARE, key: X}\n",
			want: "transformations.0.type",
		},
		{
			name: "unknown operand",
			doc:  valid + "transformations:\n  - {type: MULTIPLY_IF_KEY, key: X, operand: ABOUT, value: 1, transform_key: Y, multiplier: 2}\n",
			want: "transformations.0.operand",
		},
		{
			name: "divide by zero",
			doc:  valid + "transformations:\n  - {type: DIVIDE, key: X, value: 0}\n",
			want: "transformations.0.value",
		},
	}

	v, err := NewValidator()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := v.ValidateDocument("meter.yml", []byte(tt.doc))
			require.NotEmpty(t, issues)

			for _, is := range issues {
				assert.Equal(t, "meter.yml", is.File)
			}
			assert.Contains(t, strings.Join(issueStrings(issues), "\n"), tt.want)
		})
	}
}

func TestValidator_UnorderedContents(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	doc := strings.Replace(testMeterA,
		"      - {position: 0, name: SERIAL, type: OctetString}\n      - {position: 1, name: VOLTAGE, type: UInt16}\n",
		"      - {position: 1, name: VOLTAGE, type: UInt16}\n      - {position: 0, name: SERIAL, type: OctetString}\n", 1)
	require.NotEqual(t, testMeterA, doc)

	assert.Empty(t, issueStrings(v.ValidateDocument("meter.yml", []byte(doc))))
}

func TestValidator_InvalidYAML(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	issues := v.ValidateDocument("broken.yml", []byte("info: [unterminated"))
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "invalid YAML")
}

func TestValidator_DuplicateID(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	fsys := fstest.MapFS{
		"a.yml": {Data: []byte(testMeterB)},
		"b.yml": {Data: []byte(testMeterB)},
	}
	issues, err := v.ValidateFS(fsys)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "b.yml", issues[0].File)
	assert.Equal(t, "info.id", issues[0].Path)
}
