// Package web embeds the single-page client.
package web

import "embed"

//go:embed index.html app.js styles.css
var Assets embed.FS
