package buddy

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the release version of buddy.
var Version = strings.TrimSpace(rawVersion)
