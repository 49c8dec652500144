package gcroots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingStore struct {
	Store
	resets int
}

func (c *countingStore) ForkReset() { c.resets++ }

func TestForkGuardSamePid(t *testing.T) {
	s := &countingStore{}
	g := NewForkGuard(s)

	assert.False(t, g.Check())
	assert.Zero(t, s.resets)
}

func TestForkGuardDetectsNewPid(t *testing.T) {
	s := &countingStore{}
	g := NewForkGuard(s)
	parent := int(g.pid.Load())

	assert.True(t, g.check(parent+1))
	assert.Equal(t, 1, s.resets)

	// Already reset for this child.
	assert.False(t, g.check(parent+1))
	assert.Equal(t, 1, s.resets)
}

func TestForkGuardResetsRegistryLock(t *testing.T) {
	r := New()
	g := NewForkGuard(r)
	r.lock.Lock()

	assert.True(t, g.check(int(g.pid.Load())+7))
	assert.False(t, r.lock.Locked())
}
