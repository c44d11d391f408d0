// Package assets embeds the files shipped with the binaries.
package assets

import "embed"

//go:embed all:templates
var FS embed.FS
