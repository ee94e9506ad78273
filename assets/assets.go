// Package assets embeds the built-in viewer served when no static front-end
// directory is configured.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed web
var web embed.FS

// Web returns the viewer files rooted at the web directory
func Web() fs.FS {
	sub, err := fs.Sub(web, "web")
	if err != nil {
		panic(err)
	}
	return sub
}
