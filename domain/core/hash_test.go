package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashBuilder_OrderIndependent(t *testing.T) {
	a := NewHashBuilder(6).String("source", "synthetic").Int("rows", 10000).Float("p", 0.0123456789).Sum()
	b := NewHashBuilder(6).Float("p", 0.0123456789).Int("rows", 10000).String("source", "synthetic").Sum()

	assert.Equal(t, a, b)
	assert.Len(t, a.String(), 64)
}

func TestHashBuilder_RoundsFloats(t *testing.T) {
	a := NewHashBuilder(6).Float("r", 0.12345671).Sum()
	b := NewHashBuilder(6).Float("r", 0.12345674).Sum()
	c := NewHashBuilder(6).Float("r", 0.1234562).Sum()

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestHashBuilder_NonFinite(t *testing.T) {
	nan := NewHashBuilder(3).Float("x", math.NaN()).Sum()
	inf := NewHashBuilder(3).Float("x", math.Inf(1)).Sum()

	assert.NotEqual(t, nan, inf)
	assert.False(t, nan.IsEmpty())
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, errors.Is(NewGroupSizeError("minority", 0), ErrEmptyGroup))
	assert.True(t, errors.Is(NewGroupSizeError("minority", 1), ErrInsufficientData))
	assert.False(t, errors.Is(NewGroupSizeError("minority", 1), ErrEmptyGroup))
	assert.True(t, IsDataError(NewMissingColumnError("NOTA_MATEMATICA")))
	assert.True(t, IsComputationError(ErrSingular))
	assert.True(t, IsBackendUnavailable(NewBackendUnavailableError("chromedp", errors.New("no chrome"))))
}
