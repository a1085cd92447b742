// Package template embeds the HTML templates into the binary so the
// kiosk binary can run standalone without external template files.
package template

import "embed"

//go:embed *.html
var FS embed.FS
