package lottie

import (
	"fmt"
	"math"

	xvector "golang.org/x/image/vector"

	"github.com/opd-ai/stickerplay/limits"
)

// kappa places cubic control points for a quarter-circle approximation.
const kappa = 0.5522847498

// matrix is a 2D affine transform laid out as
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type matrix struct {
	a, b, c, d, e, f float64
}

func identity() matrix {
	return matrix{a: 1, d: 1}
}

func translate(x, y float64) matrix {
	return matrix{a: 1, d: 1, e: x, f: y}
}

func scale(sx, sy float64) matrix {
	return matrix{a: sx, d: sy}
}

func rotate(degrees float64) matrix {
	s, c := math.Sincos(degrees * math.Pi / 180)
	return matrix{a: c, b: s, c: -s, d: c}
}

// mul returns m·n, the transform that applies n first and then m.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		a: m.a*n.a + m.c*n.b,
		b: m.b*n.a + m.d*n.b,
		c: m.a*n.c + m.c*n.d,
		d: m.b*n.c + m.d*n.d,
		e: m.a*n.e + m.c*n.f + m.e,
		f: m.b*n.e + m.d*n.f + m.f,
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m.a*x + m.c*y + m.e, m.b*x + m.d*y + m.f
}

// transformMatrix builds position · rotation · scale · -anchor for a layer
// or group transform evaluated at time t.
func transformMatrix(anchor, position, scl, rotation *property, t float64) matrix {
	a := anchor.value(t, 0, 0)
	p := position.value(t, 0, 0)
	s := scl.value(t, 100, 100)
	r := rotation.scalar(t, 0)

	return translate(component(p, 0, 0), component(p, 1, 0)).
		mul(rotate(r)).
		mul(scale(component(s, 0, 100)/100, component(s, 1, 100)/100)).
		mul(translate(-component(a, 0, 0), -component(a, 1, 0)))
}

// pathGuard bounds the work a single frame hands to the rasterizer.
// Points are clamped into [-bound, bound] and at most budget commands are
// accepted. The first violation is kept in err and later commands are
// dropped.
type pathGuard struct {
	bound  float64
	budget int
	err    error
}

func newPathGuard(width, height int) *pathGuard {
	return &pathGuard{
		bound:  float64(limits.PathBoundFactor * max(width, height)),
		budget: limits.MaxPathCommands,
	}
}

// admit charges one command and reports whether it may be emitted.
func (g *pathGuard) admit() bool {
	if g.err != nil {
		return false
	}
	if g.budget <= 0 {
		g.err = fmt.Errorf("%w: more than %d path commands in one frame", ErrTooComplex, limits.MaxPathCommands)
		return false
	}
	g.budget--
	return true
}

// point clamps a transformed coordinate pair. Non-finite values abort the
// frame.
func (g *pathGuard) point(x, y float64) (float32, float32, bool) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		if g.err == nil {
			g.err = fmt.Errorf("%w: non-finite path coordinate", ErrTooComplex)
		}
		return 0, 0, false
	}
	return float32(clampAbs(x, g.bound)), float32(clampAbs(y, g.bound)), true
}

func clampAbs(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}

// pen feeds transformed path commands into a rasterizer.
type pen struct {
	z *xvector.Rasterizer
	m matrix
	g *pathGuard
}

func (p pen) moveTo(x, y float64) {
	if !p.g.admit() {
		return
	}
	if tx, ty, ok := p.g.point(p.m.apply(x, y)); ok {
		p.z.MoveTo(tx, ty)
	}
}

func (p pen) lineTo(x, y float64) {
	if !p.g.admit() {
		return
	}
	if tx, ty, ok := p.g.point(p.m.apply(x, y)); ok {
		p.z.LineTo(tx, ty)
	}
}

func (p pen) cubeTo(x1, y1, x2, y2, x, y float64) {
	if !p.g.admit() {
		return
	}
	ax, ay, ok1 := p.g.point(p.m.apply(x1, y1))
	bx, by, ok2 := p.g.point(p.m.apply(x2, y2))
	cx, cy, ok3 := p.g.point(p.m.apply(x, y))
	if ok1 && ok2 && ok3 {
		p.z.CubeTo(ax, ay, bx, by, cx, cy)
	}
}

func (p pen) close() {
	if p.g.err == nil {
		p.z.ClosePath()
	}
}

// rect emits a rectangle centred on (cx, cy), optionally with rounded
// corners.
func (p pen) rect(cx, cy, w, h, r float64) {
	if w <= 0 || h <= 0 {
		return
	}
	left, right := cx-w/2, cx+w/2
	top, bottom := cy-h/2, cy+h/2
	r = math.Min(r, math.Min(w, h)/2)

	if r <= 0 {
		p.moveTo(right, top)
		p.lineTo(right, bottom)
		p.lineTo(left, bottom)
		p.lineTo(left, top)
		p.close()
		return
	}

	k := r * kappa
	p.moveTo(right, top+r)
	p.lineTo(right, bottom-r)
	p.cubeTo(right, bottom-r+k, right-r+k, bottom, right-r, bottom)
	p.lineTo(left+r, bottom)
	p.cubeTo(left+r-k, bottom, left, bottom-r+k, left, bottom-r)
	p.lineTo(left, top+r)
	p.cubeTo(left, top+r-k, left+r-k, top, left+r, top)
	p.lineTo(right-r, top)
	p.cubeTo(right-r+k, top, right, top+r-k, right, top+r)
	p.close()
}

// ellipse emits an ellipse centred on (cx, cy) with the given size.
func (p pen) ellipse(cx, cy, w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	rx, ry := w/2, h/2
	kx, ky := rx*kappa, ry*kappa

	p.moveTo(cx, cy-ry)
	p.cubeTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	p.cubeTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.cubeTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.cubeTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.close()
}

// bezierPath emits a Lottie path. Segment k runs from V[k] with out
// tangent O[k] to V[k+1] with in tangent I[k+1].
func (p pen) bezierPath(b *bezier) {
	if b == nil || len(b.V) == 0 {
		return
	}
	tan := func(list [][2]float64, i int) [2]float64 {
		if i < len(list) {
			return list[i]
		}
		return [2]float64{}
	}

	p.moveTo(b.V[0][0], b.V[0][1])
	segment := func(from, to int) {
		out := tan(b.O, from)
		in := tan(b.I, to)
		p.cubeTo(
			b.V[from][0]+out[0], b.V[from][1]+out[1],
			b.V[to][0]+in[0], b.V[to][1]+in[1],
			b.V[to][0], b.V[to][1],
		)
	}
	for k := 0; k+1 < len(b.V); k++ {
		segment(k, k+1)
	}
	if b.Closed && len(b.V) > 1 {
		segment(len(b.V)-1, 0)
	}
	p.close()
}
