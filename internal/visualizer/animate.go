package visualizer

import (
	"math/rand/v2"
	"time"
)

// particle is one cycle of a particle moving from the origin to target
type particle struct {
	start    time.Time
	duration time.Duration
	target   Point
}

// Animator holds the transient animation state for one scene. It is
// discarded when the snapshot changes; nothing carries over.
type Animator struct {
	scene     Scene
	start     time.Time
	rng       *rand.Rand
	particles []particle
}

// Frame is the animated state of a scene at one instant
type Frame struct {
	Vector    Point // current tip of the state vector
	HasVector bool
	Particles []Point
	Glow      Point
}

// NewAnimator starts animating scene at start. rng may be nil.
func NewAnimator(scene Scene, start time.Time, rng *rand.Rand) *Animator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	a := &Animator{scene: scene, start: start, rng: rng}
	if scene.HasVector() {
		a.particles = make([]particle, scene.Particles)
		for i := range a.particles {
			a.particles[i] = a.newCycle(start)
		}
	}
	return a
}

// Scene returns the scene being animated
func (a *Animator) Scene() Scene {
	return a.scene
}

func (a *Animator) newCycle(start time.Time) particle {
	target := a.scene.Vector.Target
	span := MaxParticleCycle - MinParticleCycle
	return particle{
		start:    start,
		duration: MinParticleCycle + time.Duration(a.rng.Int64N(int64(span))),
		target: Point{
			X: target.X + (a.rng.Float64()-0.5)*2*ParticleJitter,
			Y: target.Y + (a.rng.Float64()-0.5)*2*ParticleJitter,
		},
	}
}

// Frame advances the animation to now. Particles whose cycle has finished
// restart from the origin with a fresh duration and target.
func (a *Animator) Frame(now time.Time) Frame {
	var f Frame
	if !a.scene.HasVector() {
		return f
	}

	v := a.scene.Vector
	t := EaseCubicInOut(fraction(now.Sub(a.start), v.Duration))
	f.HasVector = true
	f.Vector = lerp(Point{}, v.Target, t)
	f.Glow = v.Target

	f.Particles = make([]Point, len(a.particles))
	for i := range a.particles {
		p := &a.particles[i]
		if now.Sub(p.start) > 2*MaxParticleCycle {
			// Resync after a long pause instead of replaying missed cycles
			*p = a.newCycle(now)
		}
		for now.Sub(p.start) >= p.duration {
			*p = a.newCycle(p.start.Add(p.duration))
		}
		f.Particles[i] = lerp(Point{}, p.target, EaseCubicInOut(fraction(now.Sub(p.start), p.duration)))
	}
	return f
}

// EaseCubicInOut is the symmetric cubic easing curve on [0, 1]
func EaseCubicInOut(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 4 * t * t * t
	default:
		u := -2*t + 2
		return 1 - u*u*u/2
	}
}

func fraction(elapsed, total time.Duration) float64 {
	if total <= 0 || elapsed >= total {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(total)
}

func lerp(a, b Point, t float64) Point {
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}
