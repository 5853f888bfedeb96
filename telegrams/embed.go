// Package telegrams ships the built-in meter profile documents.
package telegrams

import "embed"

// FS holds default.yml and one document per supported meter.
//
//go:embed *.yml
var FS embed.FS
