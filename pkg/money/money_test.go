package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyRateBps(t *testing.T) {
	// 7% of 20000 cents
	assert.Equal(t, int64(1400), ApplyRateBps(20000, 700))
	// 10% of 10000 cents
	assert.Equal(t, int64(1000), ApplyRateBps(10000, 1000))
	// 7% of 19000 cents
	assert.Equal(t, int64(1330), ApplyRateBps(19000, 700))
}

func TestApplyRateBpsRoundsHalfUp(t *testing.T) {
	// 5% of 50 cents = 2.5 -> 3
	assert.Equal(t, int64(3), ApplyRateBps(50, 500))
	// 5% of 49 cents = 2.45 -> 2
	assert.Equal(t, int64(2), ApplyRateBps(49, 500))
	// 7.25% of 1 cent = 0.0725 -> 0
	assert.Equal(t, int64(0), ApplyRateBps(1, 725))
}

func TestApplyRateBpsZeroInputs(t *testing.T) {
	assert.Equal(t, int64(0), ApplyRateBps(0, 700))
	assert.Equal(t, int64(0), ApplyRateBps(10000, 0))
	assert.Equal(t, int64(0), ApplyRateBps(-100, 700))
}

func TestCapAt(t *testing.T) {
	assert.Equal(t, int64(500), CapAt(1000, 500))
	assert.Equal(t, int64(300), CapAt(300, 500))
	// non-positive cap means no cap
	assert.Equal(t, int64(1000), CapAt(1000, 0))
}
