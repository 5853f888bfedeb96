package telegram

import (
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/AndyTempel/victron-dlms-gird-meter/profile"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadProfile selects the single profile declared by doc.
func loadProfile(t *testing.T, id, doc string) *profile.Profile {
	t.Helper()
	cat, err := profile.LoadFS(fstest.MapFS{id + ".yml": {Data: []byte(doc)}}, quietLogger())
	require.NoError(t, err)
	p, err := cat.Select(id)
	require.NoError(t, err)
	return p
}

const sharedLengthProfile = `
info: {id: shared, multiple_telegrams: true}
telegrams:
  - name: pair
    length: 2
    contents:
      - {position: 0, name: A, type: UInt8}
      - {position: 1, name: B, type: Boolean}
  - name: triple_numbers
    length: 3
    contents:
      - {position: 0, name: SERIAL, type: OctetString}
      - {position: 1, name: ENERGY, type: UInt32}
      - {position: 2, name: STATE, type: Enum}
  - name: triple_flags
    length: 3
    contents:
      - {position: 0, name: SERIAL, type: OctetString}
      - {position: 1, name: CLOSED, type: Boolean}
      - {position: 2, name: OPEN, type: Boolean}
  - name: odd
    length: 1
    contents:
      - {position: 0, name: WEIRD, type: Float64}
`
