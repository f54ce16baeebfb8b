// Package manifests embeds the module manifests shipped with the indexer.
package manifests

import "embed"

//go:embed *.yaml
var FS embed.FS
