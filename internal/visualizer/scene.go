// Package visualizer maps a metrics snapshot to a Bloch-sphere style scene:
// projection guides, a state vector, an orbiting particle field, two gauges
// and the qubit histogram. Render is pure; Animator and Canvas turn a scene
// into terminal frames.
package visualizer

import (
	"fmt"
	"math"
	"time"

	"github.com/diogo/qsemantic/internal/models"
)

// Scene geometry, in scene units centred on the origin. Y grows downward.
const (
	Radius         = 150.0
	EllipseRY      = 40.0
	ViewBox        = 400.0
	ParticleCount  = 20
	ParticleJitter = 30.0
	GlowRadius     = 10.0

	VectorDuration   = time.Second
	MinParticleCycle = 2000 * time.Millisecond
	MaxParticleCycle = 4000 * time.Millisecond

	// MinBarHeight keeps zero-valued bars visible, in percent
	MinBarHeight = 5.0
)

// Point is a position in scene units
type Point struct {
	X, Y float64
}

// Guides are the static projection lines drawn in every scene
type Guides struct {
	CircleRadius float64
	EllipseRX    float64
	EllipseRY    float64
	AxisHalf     float64 // dashed vertical axis from -AxisHalf to AxisHalf
}

// StateVector is the line from the origin to the projected semantic vector
type StateVector struct {
	Target   Point
	Duration time.Duration
}

// Gauge is a labelled percentage
type Gauge struct {
	Label string
	Value float64
}

// Percent returns the gauge value formatted with one decimal, e.g. "70.0%"
func (g Gauge) Percent() string {
	return fmt.Sprintf("%.1f%%", g.Value*100)
}

// Bar is one column of the qubit histogram. Height is in percent.
type Bar struct {
	Label  string
	Value  float64
	Height float64
}

// Scene is everything needed to draw one snapshot
type Scene struct {
	Guides Guides

	// Vector is nil when there is no snapshot. Particles and the glow are
	// drawn only alongside a vector.
	Vector    *StateVector
	Particles int

	Entanglement  Gauge
	Superposition Gauge
	Bars          []Bar
}

// HasVector reports whether the scene carries a state vector
func (s Scene) HasVector() bool {
	return s.Vector != nil
}

// Project maps a semantic vector onto the projection disc. Z points up.
func Project(v models.Vector) Point {
	return Point{X: v.X * Radius, Y: -v.Z * Radius}
}

// BarHeight returns the histogram height in percent for v
func BarHeight(v float64) float64 {
	return math.Max(v*100, MinBarHeight)
}

// Render derives a scene from stats. A nil snapshot yields the guides, empty
// gauges and the default qubit distribution.
func Render(stats *models.Stats) Scene {
	scene := Scene{
		Guides: Guides{
			CircleRadius: Radius,
			EllipseRX:    Radius,
			EllipseRY:    EllipseRY,
			AxisHalf:     Radius,
		},
		Entanglement:  Gauge{Label: "Entanglement"},
		Superposition: Gauge{Label: "Superposition"},
	}

	states := models.DefaultQubitStates()
	if stats != nil {
		scene.Vector = &StateVector{
			Target:   Project(stats.SemanticVector),
			Duration: VectorDuration,
		}
		scene.Particles = ParticleCount
		scene.Entanglement.Value = stats.Entanglement
		scene.Superposition.Value = stats.Superposition
		if len(stats.QubitStates) > 0 {
			states = stats.QubitStates
		}
	}

	scene.Bars = make([]Bar, len(states))
	for i, v := range states {
		scene.Bars[i] = Bar{
			Label:  fmt.Sprintf("Q%d", i),
			Value:  v,
			Height: BarHeight(v),
		}
	}
	return scene
}
