package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Buddy banner to w, coloured when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{"  ___           _     _       ", "#818cf8"},
		{" | _ )_  _ __| |__| |_  _  ", "#a78bfa"},
		{" | _ \\ || / _` / _` | || | ", "#c084fc"},
		{" |___/\\_,_\\__,_\\__,_|\\_, | ", "#e879f9"},
		{"                     |__/  ", "#f472b6"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
