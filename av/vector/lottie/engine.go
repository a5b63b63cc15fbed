// Package lottie is a compact Lottie renderer for sticker animations.
//
// It understands solid, shape and null layers, layer parenting, group
// transforms and the rectangle, ellipse, path and fill shape items.
// Keyframes are either held or eased along a cubic curve picked from the
// keyframe's tangents. Precomps, masks, mattes, strokes, gradients and text
// are not rendered.
package lottie

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	xvector "golang.org/x/image/vector"

	"github.com/opd-ai/stickerplay/av/vector"
	"github.com/opd-ai/stickerplay/limits"
)

// ErrNoLayers is returned for documents without a layers array.
var ErrNoLayers = errors.New("lottie: document has no layers")

// ErrClosed is returned when rendering a closed animation.
var ErrClosed = errors.New("lottie: animation closed")

// ErrTooComplex is returned when a frame's geometry exceeds the render
// budget or contains non-finite coordinates.
var ErrTooComplex = errors.New("lottie: frame geometry too complex")

// Engine parses Lottie JSON documents.
type Engine struct{}

// New returns the built-in Lottie engine.
func New() *Engine {
	return &Engine{}
}

// Name implements vector.Engine.
func (e *Engine) Name() string {
	return "lottie"
}

// Parse implements vector.Engine. Validation of frame count, rate and size
// is left to the caller.
func (e *Engine) Parse(doc []byte) (vector.Animation, error) {
	var d document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("lottie: %w", err)
	}
	if d.Layers == nil {
		return nil, ErrNoLayers
	}

	a := &animation{
		doc:     &d,
		byIndex: make(map[int]*layer, len(d.Layers)),
	}
	for i := range d.Layers {
		if idx := d.Layers[i].Index; idx != nil {
			a.byIndex[*idx] = &d.Layers[i]
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "Engine.Parse",
		"version":  d.Version,
		"layers":   len(d.Layers),
		"frames":   a.FrameCount(),
	}).Debug("Parsed Lottie document")

	return a, nil
}

// animation is a parsed document plus its reusable drawing surfaces.
type animation struct {
	mu      sync.Mutex
	doc     *document
	byIndex map[int]*layer
	canvas  *image.RGBA
	z       *xvector.Rasterizer
	guard   *pathGuard
	closed  bool
}

func (a *animation) FrameCount() int {
	return int(math.Floor(a.doc.OutPoint - a.doc.InPoint))
}

func (a *animation) FrameRate() float64 {
	return a.doc.FrameRate
}

func (a *animation) Size() (int, int) {
	return int(math.Round(a.doc.Width)), int(math.Round(a.doc.Height))
}

func (a *animation) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.canvas = nil
	a.z = nil
	return nil
}

// Render draws frame index scaled from the native size to width x height
// and writes premultiplied ARGB into dst.
func (a *animation) Render(index int, dst []uint32, width, height int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if width < 1 || height < 1 || len(dst) < width*height {
		return fmt.Errorf("lottie: destination %dx%d does not fit %d pixels", width, height, len(dst))
	}
	nw, nh := a.Size()
	if nw < 1 || nh < 1 {
		return fmt.Errorf("lottie: invalid native size %dx%d", nw, nh)
	}

	a.prepare(width, height)
	a.guard = newPathGuard(width, height)

	view := scale(float64(width)/float64(nw), float64(height)/float64(nh))
	t := a.doc.InPoint + float64(index)

	// The first layer in the array is the top-most one.
	for i := len(a.doc.Layers) - 1; i >= 0 && a.guard.err == nil; i-- {
		a.renderLayer(&a.doc.Layers[i], t, view)
	}
	if err := a.guard.err; err != nil {
		return err
	}

	pix := a.canvas.Pix
	for i := 0; i < width*height; i++ {
		o := i * 4
		dst[i] = uint32(pix[o+3])<<24 | uint32(pix[o])<<16 | uint32(pix[o+1])<<8 | uint32(pix[o+2])
	}
	return nil
}

// prepare sizes the canvas and rasterizer and clears the canvas.
func (a *animation) prepare(width, height int) {
	if a.canvas == nil || a.canvas.Rect.Dx() != width || a.canvas.Rect.Dy() != height {
		a.canvas = image.NewRGBA(image.Rect(0, 0, width, height))
	} else {
		draw.Draw(a.canvas, a.canvas.Bounds(), image.Transparent, image.Point{}, draw.Src)
	}
	if a.z == nil {
		a.z = xvector.NewRasterizer(width, height)
	}
}

func (a *animation) renderLayer(l *layer, t float64, view matrix) {
	if l.Hidden || t < l.InPoint || t >= l.OutPoint {
		return
	}
	if l.Type != layerSolid && l.Type != layerShape {
		return
	}

	local := t - l.StartTime
	opacity := l.Transform.Opacity.scalar(local, 100) / 100
	if opacity <= 0 {
		return
	}
	m := view.mul(a.layerMatrix(l, t, 0))

	switch l.Type {
	case layerSolid:
		c, err := colorful.Hex(l.SolidColor)
		if err != nil {
			return
		}
		a.begin()
		pen{z: a.z, m: m, g: a.guard}.rect(l.SolidWidth/2, l.SolidHeight/2, l.SolidWidth, l.SolidHeight, 0)
		a.fill(c, opacity)
	case layerShape:
		a.renderGroup(l.Shapes, local, m, opacity)
	}
}

// layerMatrix returns the layer's transform composed with its parents'.
// Parent chains deeper than limits.MaxParentDepth are cut off, which also
// terminates cycles.
func (a *animation) layerMatrix(l *layer, t float64, depth int) matrix {
	tr := &l.Transform
	local := transformMatrix(tr.Anchor, tr.Position, tr.Scale, tr.Rotation, t-l.StartTime)
	if l.Parent == nil || depth >= limits.MaxParentDepth {
		return local
	}
	parent, ok := a.byIndex[*l.Parent]
	if !ok || parent == l {
		return local
	}
	return a.layerMatrix(parent, t, depth+1).mul(local)
}

// renderGroup paints a shape list. Items are painted last to first, and a
// fill covers every geometry item listed before it, nested groups included.
func (a *animation) renderGroup(items []shape, t float64, m matrix, opacity float64) {
	for i := range items {
		if items[i].Type == "tr" {
			m = m.mul(groupMatrix(&items[i], t))
			opacity *= items[i].O.scalar(t, 100) / 100
		}
	}
	if opacity <= 0 {
		return
	}

	for i := len(items) - 1; i >= 0 && a.guard.err == nil; i-- {
		it := &items[i]
		if it.Hidden {
			continue
		}
		switch it.Type {
		case "gr":
			a.renderGroup(it.Items, t, m, opacity)
		case "fl":
			c := it.Color.value(t, 0, 0, 0)
			a.begin()
			if !emitGeometry(pen{z: a.z, m: m, g: a.guard}, items[:i], t) {
				continue
			}
			a.fill(fillColor(c), opacity*it.O.scalar(t, 100)/100)
		}
	}
}

// emitGeometry feeds all geometry in items into p and reports whether any
// was found.
func emitGeometry(p pen, items []shape, t float64) bool {
	found := false
	for i := range items {
		it := &items[i]
		if it.Hidden {
			continue
		}
		switch it.Type {
		case "rc":
			pos := it.P.value(t, 0, 0)
			size := it.S.value(t, 0, 0)
			p.rect(component(pos, 0, 0), component(pos, 1, 0),
				component(size, 0, 0), component(size, 1, 0), it.R.scalar(t, 0))
			found = true
		case "el":
			pos := it.P.value(t, 0, 0)
			size := it.S.value(t, 0, 0)
			p.ellipse(component(pos, 0, 0), component(pos, 1, 0),
				component(size, 0, 0), component(size, 1, 0))
			found = true
		case "sh":
			if b := it.Path.path(t); b != nil {
				p.bezierPath(b)
				found = true
			}
		case "gr":
			inner := pen{z: p.z, m: p.m, g: p.g}
			for j := range it.Items {
				if it.Items[j].Type == "tr" {
					inner.m = inner.m.mul(groupMatrix(&it.Items[j], t))
				}
			}
			if emitGeometry(inner, it.Items, t) {
				found = true
			}
		}
	}
	return found
}

func groupMatrix(tr *shape, t float64) matrix {
	return transformMatrix(tr.A, tr.P, tr.S, tr.R, t)
}

// fillColor converts a Lottie colour. Components are normally 0..1; some
// exporters write 0..255.
func fillColor(c []float64) colorful.Color {
	r, g, b := component(c, 0, 0), component(c, 1, 0), component(c, 2, 0)
	if r > 1 || g > 1 || b > 1 {
		r, g, b = r/255, g/255, b/255
	}
	return colorful.Color{R: r, G: g, B: b}
}

// begin resets the rasterizer for a new fill.
func (a *animation) begin() {
	b := a.canvas.Bounds()
	a.z.Reset(b.Dx(), b.Dy())
	a.z.DrawOp = draw.Over
}

// fill composites the accumulated paths onto the canvas.
func (a *animation) fill(c colorful.Color, opacity float64) {
	if opacity <= 0 || a.guard.err != nil {
		return
	}
	if opacity > 1 {
		opacity = 1
	}
	r, g, b := c.Clamped().RGB255()
	src := image.NewUniform(color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(opacity * 255))})
	a.z.Draw(a.canvas, a.canvas.Bounds(), src, image.Point{})
}
