package lottie

import (
	"github.com/fogleman/ease"
)

type keyframe struct {
	t         float64
	start     []float64
	end       []float64
	startPath *bezier
	endPath   *bezier
	hold      bool
	easing    func(float64) float64
}

// easingThreshold is how far a handle must sit off the diagonal before the
// segment counts as eased rather than linear.
const easingThreshold = 0.05

// easingFor maps a keyframe's bezier handles onto an ease curve. The out
// handle shapes the start of the segment and the in handle its end.
func easingFor(out, in *tangent) func(float64) float64 {
	if out == nil || in == nil {
		return ease.Linear
	}
	ox, okOX := firstNumber(out.X)
	oy, okOY := firstNumber(out.Y)
	ix, okIX := firstNumber(in.X)
	iy, okIY := firstNumber(in.Y)
	if !okOX || !okOY || !okIX || !okIY {
		return ease.Linear
	}

	slowStart := ox-oy > easingThreshold
	slowEnd := iy-ix > easingThreshold
	switch {
	case slowStart && slowEnd:
		return ease.InOutCubic
	case slowStart:
		return ease.InCubic
	case slowEnd:
		return ease.OutCubic
	default:
		return ease.Linear
	}
}

// value evaluates the property at time t, returning def when the property
// is absent or carries no numeric data.
func (p *property) value(t float64, def ...float64) []float64 {
	if p == nil {
		return def
	}
	if len(p.keyframes) == 0 {
		if p.static == nil {
			return def
		}
		return p.static
	}

	kfs := p.keyframes
	if t <= kfs[0].t {
		return orDefault(kfs[0].start, def)
	}
	for i := 0; i < len(kfs)-1; i++ {
		a, b := kfs[i], kfs[i+1]
		if t >= b.t {
			continue
		}
		if a.hold || b.t <= a.t || a.start == nil {
			return orDefault(a.start, def)
		}
		end := a.end
		if end == nil {
			end = b.start
		}
		if end == nil {
			return a.start
		}
		return lerp(a.start, end, a.easing((t-a.t)/(b.t-a.t)))
	}

	last := kfs[len(kfs)-1]
	if last.start != nil {
		return last.start
	}
	if len(kfs) > 1 && kfs[len(kfs)-2].end != nil {
		return kfs[len(kfs)-2].end
	}
	return def
}

// scalar evaluates the first component of the property.
func (p *property) scalar(t, def float64) float64 {
	v := p.value(t, def)
	if len(v) == 0 {
		return def
	}
	return v[0]
}

// path evaluates a shape path at time t.
func (p *property) path(t float64) *bezier {
	if p == nil {
		return nil
	}
	if len(p.keyframes) == 0 {
		return p.staticPath
	}

	kfs := p.keyframes
	if t <= kfs[0].t {
		return kfs[0].startPath
	}
	for i := 0; i < len(kfs)-1; i++ {
		a, b := kfs[i], kfs[i+1]
		if t >= b.t {
			continue
		}
		end := a.endPath
		if end == nil {
			end = b.startPath
		}
		if a.hold || b.t <= a.t || a.startPath == nil || end == nil {
			return a.startPath
		}
		return lerpPath(a.startPath, end, a.easing((t-a.t)/(b.t-a.t)))
	}

	last := kfs[len(kfs)-1]
	if last.startPath != nil {
		return last.startPath
	}
	if len(kfs) > 1 {
		return kfs[len(kfs)-2].endPath
	}
	return nil
}

func orDefault(v, def []float64) []float64 {
	if v == nil {
		return def
	}
	return v
}

func lerp(a, b []float64, t float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}

// lerpPath interpolates two paths vertex by vertex. Paths with different
// vertex counts cannot be morphed and hold the start shape.
func lerpPath(a, b *bezier, t float64) *bezier {
	if len(a.V) != len(b.V) || len(a.I) != len(b.I) || len(a.O) != len(b.O) {
		return a
	}
	out := &bezier{
		Closed: a.Closed,
		V:      make([][2]float64, len(a.V)),
		I:      make([][2]float64, len(a.I)),
		O:      make([][2]float64, len(a.O)),
	}
	for i := range a.V {
		out.V[i] = lerp2(a.V[i], b.V[i], t)
	}
	for i := range a.I {
		out.I[i] = lerp2(a.I[i], b.I[i], t)
	}
	for i := range a.O {
		out.O[i] = lerp2(a.O[i], b.O[i], t)
	}
	return out
}

func lerp2(a, b [2]float64, t float64) [2]float64 {
	return [2]float64{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// component returns v[i] or def when v is too short.
func component(v []float64, i int, def float64) float64 {
	if i < len(v) {
		return v[i]
	}
	return def
}
