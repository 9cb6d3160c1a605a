// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRosterAdvancesForwardOnly(t *testing.T) {
	r := NewRoster([]string{"pro", "flash"})

	m, ok := r.Current()
	assert.True(t, ok)
	assert.Equal(t, "pro", m)
	assert.Equal(t, 2, r.Remaining())

	r2 := r.Advance()
	m, ok = r2.Current()
	assert.True(t, ok)
	assert.Equal(t, "flash", m)

	// The original value is untouched.
	m, _ = r.Current()
	assert.Equal(t, "pro", m)

	r3 := r2.Advance()
	assert.True(t, r3.Exhausted())
	_, ok = r3.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, r3.Remaining())

	// Advancing past the end stays exhausted.
	assert.True(t, r3.Advance().Exhausted())
	assert.Equal(t, 0, r3.Advance().Remaining())
}

func TestRosterEmpty(t *testing.T) {
	r := NewRoster(nil)
	assert.True(t, r.Exhausted())
}

func TestNewRosterCopiesModels(t *testing.T) {
	models := []string{"a", "b"}
	r := NewRoster(models)
	models[0] = "changed"

	m, _ := r.Current()
	assert.Equal(t, "a", m)
}
