package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var bars = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the last Width samples on a single row, scaled to the
// largest visible sample.
type Sparkline struct {
	Label   string
	Width   int
	Style   lipgloss.Style
	samples []float64
}

func NewSparkline(label string, width int, style lipgloss.Style) Sparkline {
	return Sparkline{Label: label, Width: width, Style: style}
}

func (s *Sparkline) Push(v float64) {
	if v < 0 {
		v = 0
	}
	s.samples = append(s.samples, v)
	if len(s.samples) > s.Width {
		s.samples = s.samples[len(s.samples)-s.Width:]
	}
}

func (s Sparkline) Last() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	return s.samples[len(s.samples)-1]
}

func (s Sparkline) Graph() string {
	peak := 0.0
	for _, v := range s.samples {
		peak = max(peak, v)
	}

	var b strings.Builder
	for _, v := range s.samples {
		idx := 0
		if peak > 0 {
			idx = int(v / peak * float64(len(bars)-1))
		}
		b.WriteRune(bars[idx])
	}
	if pad := s.Width - len(s.samples); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	return b.String()
}

func (s Sparkline) View() string {
	head := fmt.Sprintf("%s  %.1f", s.Label, s.Last())
	return s.Style.Render(head) + "\n" + s.Style.Render(s.Graph())
}
