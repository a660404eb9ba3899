package toolguide

import _ "embed"

// Version is the release version, embedded from version.txt.
//
//go:embed version.txt
var Version string
