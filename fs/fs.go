// Package appfs embeds static app assets (database migrations).
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
