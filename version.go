package manipd

import _ "embed"

// Version is the release of manipd, read from the VERSION file. It may carry
// a trailing newline; trim before display.
//
//go:embed VERSION
var Version string
