package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// Surface renders the display state.
type Surface interface {
	// Show replaces everything visible with content.
	Show(content string)
	// Raise briefly brings the surface to the user's attention, then releases.
	Raise()
}

type nopSurface struct{}

func (nopSurface) Show(string) {}
func (nopSurface) Raise()      {}

// Title heads every rendered replacement.
const Title = "BASECAMP BUDDY"

// WriterSurface renders each replacement as a block on a stream, for headless runs.
type WriterSurface struct {
	out *termenv.Output
	// Clear wipes the terminal before each block so only the latest content is visible.
	Clear bool
	// Bell rings the terminal bell on Raise.
	Bell bool
}

// NewWriterSurface creates a surface writing to w. Styling is used only when w is a terminal.
func NewWriterSurface(w io.Writer) *WriterSurface {
	return &WriterSurface{out: termenv.NewOutput(w), Bell: true}
}

// Show writes the header and the sanitized content.
func (s *WriterSurface) Show(content string) {
	if s.Clear {
		s.out.ClearScreen()
	}
	header := s.out.String(" " + Title + " ").Bold().Foreground(s.out.Color("#818cf8"))
	fmt.Fprintf(s.out, "%s\n%s\n%s\n", header, Sanitize(content), strings.Repeat("─", len(Title)+2))
}

// Raise rings the bell.
func (s *WriterSurface) Raise() {
	if s.Bell {
		fmt.Fprint(s.out, "\a")
	}
}
