package visualizer

import (
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette colors the rasterized scene
type Palette struct {
	Guide    lipgloss.Color
	Vector   lipgloss.Color
	Particle lipgloss.Color
	BarLow   lipgloss.Color // bottom of the histogram gradient
	BarHigh  lipgloss.Color // top of the histogram gradient
	Label    lipgloss.Color
	Value    lipgloss.Color
}

// DefaultPalette returns the slate/cyan/purple palette
func DefaultPalette() Palette {
	return Palette{
		Guide:    lipgloss.Color("#334155"),
		Vector:   lipgloss.Color("#22d3ee"),
		Particle: lipgloss.Color("#67e8f9"),
		BarLow:   lipgloss.Color("#9333ea"),
		BarHigh:  lipgloss.Color("#22d3ee"),
		Label:    lipgloss.Color("#64748b"),
		Value:    lipgloss.Color("#e2e8f0"),
	}
}

// cell layers; a higher layer overwrites a lower one
type layer uint8

const (
	layerEmpty layer = iota
	layerGuide
	layerAxis
	layerVector
	layerParticle
	layerGlow
)

var glyphs = [...]rune{
	layerEmpty:    ' ',
	layerGuide:    '·',
	layerAxis:     '┊',
	layerVector:   '•',
	layerParticle: '∘',
	layerGlow:     '◉',
}

// Canvas rasterizes a scene onto a grid of terminal cells. Cells are about
// twice as tall as they are wide, so a square view wants Width ≈ 2*Height.
type Canvas struct {
	Width   int
	Height  int
	Palette Palette

	styles [len(glyphs)]lipgloss.Style
}

// NewCanvas creates a canvas of the given size in cells
func NewCanvas(width, height int, p Palette) *Canvas {
	c := &Canvas{Width: max(width, 3), Height: max(height, 3), Palette: p}
	c.styles[layerGuide] = lipgloss.NewStyle().Foreground(p.Guide)
	c.styles[layerAxis] = lipgloss.NewStyle().Foreground(p.Guide)
	c.styles[layerVector] = lipgloss.NewStyle().Foreground(p.Vector).Bold(true)
	c.styles[layerParticle] = lipgloss.NewStyle().Foreground(p.Particle).Faint(true)
	c.styles[layerGlow] = lipgloss.NewStyle().Foreground(p.Vector).Bold(true)
	return c
}

type grid struct {
	w, h  int
	cells []layer
}

func (g *grid) cell(p Point) (int, int, bool) {
	col := int(math.Round((p.X + ViewBox/2) / ViewBox * float64(g.w-1)))
	row := int(math.Round((p.Y + ViewBox/2) / ViewBox * float64(g.h-1)))
	if col < 0 || col >= g.w || row < 0 || row >= g.h {
		return 0, 0, false
	}
	return col, row, true
}

func (g *grid) plot(p Point, l layer) {
	col, row, ok := g.cell(p)
	if !ok {
		return
	}
	if i := row*g.w + col; l >= g.cells[i] {
		g.cells[i] = l
	}
}

func (g *grid) ellipse(rx, ry float64, l layer) {
	steps := 4 * (g.w + g.h)
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		g.plot(Point{X: rx * math.Cos(a), Y: ry * math.Sin(a)}, l)
	}
}

func (g *grid) line(from, to Point, l layer) {
	steps := max(g.w, g.h) * 2
	for i := 0; i <= steps; i++ {
		g.plot(lerp(from, to, float64(i)/float64(steps)), l)
	}
}

// Draw renders scene at frame as newline-separated styled rows
func (c *Canvas) Draw(scene Scene, frame Frame) string {
	g := &grid{w: c.Width, h: c.Height, cells: make([]layer, c.Width*c.Height)}

	gd := scene.Guides
	g.ellipse(gd.CircleRadius, gd.CircleRadius, layerGuide)
	g.ellipse(gd.EllipseRX, gd.EllipseRY, layerGuide)

	_, top, _ := g.cell(Point{Y: -gd.AxisHalf})
	_, bottom, _ := g.cell(Point{Y: gd.AxisHalf})
	col, _, _ := g.cell(Point{})
	for row := top; row <= bottom; row++ {
		if row%2 == 0 {
			g.cells[row*g.w+col] = max(g.cells[row*g.w+col], layerAxis)
		}
	}

	if frame.HasVector {
		g.line(Point{}, frame.Vector, layerVector)
		for _, p := range frame.Particles {
			g.plot(p, layerParticle)
		}
		g.plot(frame.Glow, layerGlow)
	}

	var b strings.Builder
	for row := 0; row < g.h; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		rowCells := g.cells[row*g.w : (row+1)*g.w]
		for start := 0; start < len(rowCells); {
			end := start
			for end < len(rowCells) && rowCells[end] == rowCells[start] {
				end++
			}
			run := strings.Repeat(string(glyphs[rowCells[start]]), end-start)
			if rowCells[start] == layerEmpty {
				b.WriteString(run)
			} else {
				b.WriteString(c.styles[rowCells[start]].Render(run))
			}
			start = end
		}
	}
	return b.String()
}

// NewGaugeBar returns a progress bar for a gauge. Use SetPercent on it for
// an animated fill, or ViewAs for a static one.
func NewGaugeBar(width int, fill, empty lipgloss.Color) progress.Model {
	bar := progress.New(
		progress.WithSolidFill(string(fill)),
		progress.WithoutPercentage(),
		progress.WithWidth(max(width, 1)),
	)
	bar.EmptyColor = string(empty)
	return bar
}

// RenderGauge renders a gauge header above an already rendered bar
func RenderGauge(g Gauge, bar string, accent lipgloss.Color, p Palette) string {
	label := lipgloss.NewStyle().Foreground(p.Label).Render(strings.ToUpper(g.Label))
	value := lipgloss.NewStyle().Foreground(accent).Bold(true).Render(g.Percent())
	return lipgloss.JoinVertical(lipgloss.Left, label, value, bar)
}

// StaticGauge renders a gauge with its bar filled to the current value
func StaticGauge(g Gauge, width int, accent lipgloss.Color, p Palette) string {
	bar := NewGaugeBar(width, accent, p.Guide)
	return RenderGauge(g, bar.ViewAs(clamp01(g.Value)), accent, p)
}

// RenderBars draws the qubit histogram rows cells tall with columns
// colWidth cells wide, followed by a row of labels.
func RenderBars(bars []Bar, rows, colWidth int, p Palette) string {
	rows = max(rows, 1)
	colWidth = max(colWidth, 1)

	filled := make([]int, len(bars))
	for i, bar := range bars {
		filled[i] = BarCells(bar.Height, rows)
	}

	low, errLow := colorful.Hex(string(p.BarLow))
	high, errHigh := colorful.Hex(string(p.BarHigh))

	var b strings.Builder
	for r := rows; r >= 1; r-- {
		style := lipgloss.NewStyle().Foreground(p.BarHigh)
		if errLow == nil && errHigh == nil {
			t := 0.0
			if rows > 1 {
				t = float64(r-1) / float64(rows-1)
			}
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(low.BlendLuv(high, t).Clamped().Hex()))
		}

		for i := range bars {
			if i > 0 {
				b.WriteByte(' ')
			}
			if filled[i] >= r {
				b.WriteString(style.Render(strings.Repeat("█", colWidth)))
			} else {
				b.WriteString(strings.Repeat(" ", colWidth))
			}
		}
		b.WriteByte('\n')
	}

	labelStyle := lipgloss.NewStyle().Foreground(p.Label)
	for i, bar := range bars {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(labelStyle.Render(lipgloss.PlaceHorizontal(colWidth, lipgloss.Center, bar.Label)))
	}
	return b.String()
}

// BarCells converts a percentage height to a whole number of cells in
// [1, rows]
func BarCells(height float64, rows int) int {
	n := int(math.Ceil(math.Min(height, 100) / 100 * float64(rows)))
	return min(max(n, 1), rows)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
