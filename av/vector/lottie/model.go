package lottie

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Layer types understood by the engine.
const (
	layerSolid = 1
	layerNull  = 3
	layerShape = 4
)

// document is the top level of a Lottie file.
type document struct {
	Version   string  `json:"v"`
	FrameRate float64 `json:"fr"`
	InPoint   float64 `json:"ip"`
	OutPoint  float64 `json:"op"`
	Width     float64 `json:"w"`
	Height    float64 `json:"h"`
	Layers    []layer `json:"layers"`
}

type layer struct {
	Type        int       `json:"ty"`
	Name        string    `json:"nm"`
	Index       *int      `json:"ind"`
	Parent      *int      `json:"parent"`
	InPoint     float64   `json:"ip"`
	OutPoint    float64   `json:"op"`
	StartTime   float64   `json:"st"`
	Hidden      bool      `json:"hd"`
	Transform   transform `json:"ks"`
	Shapes      []shape   `json:"shapes"`
	SolidColor  string    `json:"sc"`
	SolidWidth  float64   `json:"sw"`
	SolidHeight float64   `json:"sh"`
}

type transform struct {
	Anchor   *property `json:"a"`
	Position *property `json:"p"`
	Scale    *property `json:"s"`
	Rotation *property `json:"r"`
	Opacity  *property `json:"o"`
}

// shape is any item of a shape list. Keys are shared between item types:
// "s" is a size for rc/el and a scale for tr, "r" is roundness for rc and
// rotation for tr.
type shape struct {
	Type    string    `json:"ty"`
	Hidden  bool      `json:"hd"`
	Items   []shape   `json:"it"`
	P       *property `json:"p"`
	S       *property `json:"s"`
	R       *property `json:"r"`
	A       *property `json:"a"`
	O       *property `json:"o"`
	Color   *property `json:"c"`
	Path    *property `json:"ks"`
	Reverse int       `json:"d"`
}

// bezier is a Lottie path: vertices with tangents relative to each vertex.
type bezier struct {
	Closed bool         `json:"c"`
	V      [][2]float64 `json:"v"`
	I      [][2]float64 `json:"i"`
	O      [][2]float64 `json:"o"`
}

// tangent is a keyframe easing handle. X and Y are scalars or arrays.
type tangent struct {
	X json.RawMessage `json:"x"`
	Y json.RawMessage `json:"y"`
}

type rawKeyframe struct {
	T float64         `json:"t"`
	S json.RawMessage `json:"s"`
	E json.RawMessage `json:"e"`
	I *tangent        `json:"i"`
	O *tangent        `json:"o"`
	H int             `json:"h"`
}

// property is a possibly animated value: a number, a vector, or a path.
type property struct {
	static     []float64
	staticPath *bezier
	keyframes  []keyframe
}

// UnmarshalJSON decodes {"a":0|1,"k":...}. The k payload is inspected
// rather than trusting the "a" flag, which some exporters omit.
func (p *property) UnmarshalJSON(data []byte) error {
	var raw struct {
		K json.RawMessage `json:"k"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k := bytes.TrimSpace(raw.K)
	if len(k) == 0 {
		return nil
	}

	switch k[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(k, &elems); err != nil {
			return err
		}
		if len(elems) > 0 && firstByte(elems[0]) == '{' {
			var raws []rawKeyframe
			if err := json.Unmarshal(k, &raws); err != nil {
				return fmt.Errorf("keyframes: %w", err)
			}
			return p.setKeyframes(raws)
		}
		return json.Unmarshal(k, &p.static)
	case '{':
		p.staticPath = &bezier{}
		return json.Unmarshal(k, p.staticPath)
	default:
		var n float64
		if err := json.Unmarshal(k, &n); err != nil {
			return err
		}
		p.static = []float64{n}
		return nil
	}
}

func (p *property) setKeyframes(raws []rawKeyframe) error {
	p.keyframes = make([]keyframe, 0, len(raws))
	for _, r := range raws {
		kf := keyframe{
			t:      r.T,
			hold:   r.H == 1,
			easing: easingFor(r.O, r.I),
		}
		var err error
		if kf.start, kf.startPath, err = decodeValue(r.S); err != nil {
			return fmt.Errorf("keyframe at %v: %w", r.T, err)
		}
		if kf.end, kf.endPath, err = decodeValue(r.E); err != nil {
			return fmt.Errorf("keyframe at %v: %w", r.T, err)
		}
		p.keyframes = append(p.keyframes, kf)
	}
	return nil
}

// decodeValue decodes a keyframe value: a number, a vector, or a
// one-element array holding a path.
func decodeValue(raw json.RawMessage) ([]float64, *bezier, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil, nil
	}
	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, nil, err
		}
		if len(elems) > 0 && firstByte(elems[0]) == '{' {
			var b bezier
			if err := json.Unmarshal(elems[0], &b); err != nil {
				return nil, nil, err
			}
			return nil, &b, nil
		}
		var nums []float64
		if err := json.Unmarshal(raw, &nums); err != nil {
			return nil, nil, err
		}
		return nums, nil, nil
	case '{':
		var b bezier
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, nil, err
		}
		return nil, &b, nil
	default:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, nil, err
		}
		return []float64{n}, nil, nil
	}
}

func firstByte(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

// firstNumber reads a tangent component that may be a number or an array.
func firstNumber(raw json.RawMessage) (float64, bool) {
	nums, _, err := decodeValue(raw)
	if err != nil || len(nums) == 0 {
		return 0, false
	}
	return nums[0], true
}
