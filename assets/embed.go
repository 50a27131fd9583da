// Package assets embeds the browser client served at "/" and "/static/".
package assets

import "embed"

// FS holds web/index.html and its script and stylesheet.
//
//go:embed web
var FS embed.FS
