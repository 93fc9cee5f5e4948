package web

import "embed"

// Templates holds the embedded HTML templates under web/templates.
// internal/render parses them once at startup.
//
//go:embed templates/*.html
var Templates embed.FS
