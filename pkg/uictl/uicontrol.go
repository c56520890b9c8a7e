// Package uictl describes the small controls a TUI screen reads and drives
// without knowing what sits behind them.
package uictl

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Knob is an on/off control whose switching can fail.
type Knob interface {
	Read() bool
	Toggle() error
}

// Dial is a control that can read some value.
type Dial[N Number] interface {
	Read() N
}

// CappedDial is a Dial with a maximum cap value.
type CappedDial[N Number] interface {
	Dial[N]
	Cap() (num, max N)
}

// CappedFunc adapts a reader and a fixed cap to CappedDial.
type CappedFunc[N Number] struct {
	ReadFunc func() N
	Max      N
}

func (c CappedFunc[N]) Read() N {
	if c.ReadFunc == nil {
		return 0
	}
	return c.ReadFunc()
}

func (c CappedFunc[N]) Cap() (N, N) {
	return c.Read(), c.Max
}

// Fraction returns num/max clamped to [0, 1]. A zero cap reads as empty.
func Fraction[N Number](d CappedDial[N]) float64 {
	num, maxValue := d.Cap()
	if maxValue <= 0 {
		return 0
	}

	f := float64(num) / float64(maxValue)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
