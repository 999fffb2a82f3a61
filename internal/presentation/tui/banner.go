package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the switchboard ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Teal/Blue)
	lines := []struct {
		text  string
		color string
	}{
		{`                _ _       _     _                         _ `, "#2dd4bf"},
		{`  _____      __(_) |_ ___| |__ | |__   ___   __ _ _ __ __| |`, "#22d3ee"},
		{` / __\ \ /\ / /| | __/ __| '_ \| '_ \ / _ \ / _' | '__/ _' |`, "#38bdf8"},
		{` \__ \\ V  V / | | || (__| | | | |_) | (_) | (_| | | | (_| |`, "#60a5fa"},
		{` |___/ \_/\_/  |_|\__\___|_| |_|_.__/ \___/ \__,_|_|  \__,_|`, "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
