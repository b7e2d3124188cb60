package arithmetic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModExp(t *testing.T) {
	result := ModExp(2, 13, 7)

	assert.Equal(t, 2, result)
}

func TestGcd(t *testing.T) {
	assert.Equal(t, 6, Gcd(54, 24))
	assert.Equal(t, 6, Gcd(24, 54))
	assert.Equal(t, 5, Gcd(5, 0))
	assert.Equal(t, 7, Gcd(-14, 7))
}

func TestLcm(t *testing.T) {
	assert.Equal(t, 12, Lcm(4, 6))
	assert.Equal(t, 5000, Lcm(5000, 1000))
	assert.Equal(t, 21, Lcm(7, 3))
}
