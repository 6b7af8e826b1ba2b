package ndimage

import (
	"fmt"
	"strings"
)

// Mode selects how samples beyond the array edge are generated.
type Mode int

const (
	// ModeReflect mirrors about the edge, repeating the edge sample: d c b a | a b c d | d c b a.
	ModeReflect Mode = iota
	// ModeMirror mirrors about the edge sample without repeating it: d c b | a b c d | c b a.
	ModeMirror
	// ModeNearest repeats the edge sample: a a a | a b c d | d d d.
	ModeNearest
	// ModeWrap wraps around to the opposite edge: b c d | a b c d | a b c.
	ModeWrap
	// ModeConstant pads with Params.Cval.
	ModeConstant
)

func (m Mode) String() string {
	switch m {
	case ModeReflect:
		return "reflect"
	case ModeMirror:
		return "mirror"
	case ModeNearest:
		return "nearest"
	case ModeWrap:
		return "wrap"
	case ModeConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// ParseMode maps a mode name (as printed by Mode.String) to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "reflect", "":
		return ModeReflect, nil
	case "mirror":
		return ModeMirror, nil
	case "nearest":
		return ModeNearest, nil
	case "wrap":
		return ModeWrap, nil
	case "constant":
		return ModeConstant, nil
	}
	return 0, fmt.Errorf("%w: unknown boundary mode %q", ErrInvalidArgument, name)
}

// Params controls boundary handling and scheduling of the filters.
type Params struct {
	Mode Mode
	Cval float64 // fill value for ModeConstant

	// Parallel runs the per-axis passes of Sobel concurrently.
	Parallel bool
	// Workers bounds the number of concurrent axis passes; 0 means one per axis.
	Workers int
}

// DefaultParams returns reflective boundaries and sequential execution.
func DefaultParams() Params {
	return Params{
		Mode: ModeReflect,
	}
}

// WithMode returns a copy of p using mode.
func (p Params) WithMode(mode Mode) Params {
	p.Mode = mode
	return p
}

// WithConstant returns a copy of p padding with cval.
func (p Params) WithConstant(cval float64) Params {
	p.Mode = ModeConstant
	p.Cval = cval
	return p
}

// WithParallel returns a copy of p running up to workers axis passes at once.
// workers <= 0 means one goroutine per axis.
func (p Params) WithParallel(workers int) Params {
	p.Parallel = true
	p.Workers = max(workers, 0)
	return p
}

// boundaryIndex maps a possibly out-of-range index i on an axis of length n
// to an in-range index. It returns -1 when the sample is the constant fill.
func boundaryIndex(i, n int, mode Mode) int {
	if i >= 0 && i < n {
		return i
	}
	switch mode {
	case ModeReflect:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	case ModeMirror:
		if n == 1 {
			return 0
		}
		period := 2*n - 2
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - i
		}
		return i
	case ModeNearest:
		if i < 0 {
			return 0
		}
		return n - 1
	case ModeWrap:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	default:
		return -1
	}
}
