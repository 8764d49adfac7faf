package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION.txt
var versionFile string

// String is the release version baked into every binary.
var String = strings.TrimSpace(versionFile)
