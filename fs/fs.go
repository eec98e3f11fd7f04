// Package appfs embeds the files the binaries need at runtime: SQL migrations and assets
// (email templates, password lists, default lesson templates).
package appfs

import "embed"

//go:embed migrations all:assets
var FS embed.FS
