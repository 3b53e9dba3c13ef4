//go:build !dev

package dashboard

import (
	"embed"
	"io/fs"
)

// dist holds the production web build. A placeholder index.html is committed
// so the package compiles before the frontend has been built.
//
//go:embed all:dist
var dist embed.FS

var distFS fs.FS = dist
