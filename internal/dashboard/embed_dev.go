//go:build dev

package dashboard

import "io/fs"

// distFS is nil in dev builds. The web dev server proxies API calls to the
// backend and serves the assets itself.
var distFS fs.FS
