package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"                        _           _",
	"  _ __ ___   __ _ _ __ (_)_ __   __| |",
	" | '_ ` _ \\ / _` | '_ \\| | '_ \\ / _` |",
	" | | | | | | (_| | | | | | |_) | (_| |",
	" |_| |_| |_|\\__,_|_| |_|_| .__/ \\__,_|",
	"                         |_|",
}

// Teal to indigo, one stop per line.
var bannerColors = []string{"#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa", "#818cf8", "#a78bfa"}

// PrintBanner writes the manipd banner and version to w, colored for the
// terminal profile of w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, out.String("  manipulation server "+version).Faint())
	fmt.Fprintln(w)
}
