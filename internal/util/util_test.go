package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	p := Ptr(3)
	assert.Equal(t, 3, *p)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(2, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 3, ClampInt(9, 0, 3))
	assert.Equal(t, 0, ClampInt(-2, 0, 3))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Quantum Field", "field"))
	assert.True(t, ContainsFold("anything", ""))
	assert.False(t, ContainsFold("Alpha", "beta"))
}
