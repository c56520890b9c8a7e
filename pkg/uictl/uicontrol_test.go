package uictl_test

import (
	"testing"

	"github.com/pluma/prontuario/pkg/uictl"
	"github.com/stretchr/testify/assert"
)

func TestCappedFunc(t *testing.T) {
	var captured int64
	dial := uictl.CappedFunc[int64]{ReadFunc: func() int64 { return captured }, Max: 100}

	num, maxValue := dial.Cap()
	assert.Equal(t, int64(0), num)
	assert.Equal(t, int64(100), maxValue)

	captured = 25
	assert.Equal(t, int64(25), dial.Read())
	assert.InDelta(t, 0.25, uictl.Fraction[int64](dial), 1e-9)

	captured = 250
	assert.InDelta(t, 1.0, uictl.Fraction[int64](dial), 1e-9)

	assert.Zero(t, uictl.CappedFunc[int64]{}.Read())
	assert.Zero(t, uictl.Fraction[int64](uictl.CappedFunc[int64]{}))
}
