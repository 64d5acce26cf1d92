package al

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestVec3ArithmeticIdentities(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		a := Vec3{rapid.Float32Range(-100, 100).Draw(tt, "ax"), rapid.Float32Range(-100, 100).Draw(tt, "ay"), rapid.Float32Range(-100, 100).Draw(tt, "az")}
		b := Vec3{rapid.Float32Range(-100, 100).Draw(tt, "bx"), rapid.Float32Range(-100, 100).Draw(tt, "by"), rapid.Float32Range(-100, 100).Draw(tt, "bz")}

		sum := a.Add(b)
		back := sum.Sub(b)
		assert.InDelta(tt, a[0], back[0], 1e-2)
		assert.InDelta(tt, a[1], back[1], 1e-2)
		assert.InDelta(tt, a[2], back[2], 1e-2)

		// a . b == b . a
		assert.InDelta(tt, a.Dot(b), b.Dot(a), 1e-2)
	})
}

func TestVec3CrossIsPerpendicularToBothOperands(t *testing.T) {
	a := Vec3{1, 0, 0}
	b := Vec3{0, 1, 0}
	c := a.Cross(b)
	assert.InDelta(t, 0, c.Dot(a), 1e-6)
	assert.InDelta(t, 0, c.Dot(b), 1e-6)
	assert.Equal(t, Vec3{0, 0, 1}, c)
}

func TestVec3NormalizeProducesUnitLength(t *testing.T) {
	v := Vec3{3, 4, 0}
	n := v.Normalize()
	assert.InDelta(t, 1.0, n.Len(), 1e-5)
}

func TestVec3NormalizeZeroVectorIsUnchanged(t *testing.T) {
	var zero Vec3
	assert.Equal(t, zero, zero.Normalize())
}

func TestListenerUpdateBuildsOrthonormalMatrix(t *testing.T) {
	var l Listener
	l.Set(ListenerProps{
		Position:      Vec3{1, 2, 3},
		Forward:       Vec3{0, 0, -1},
		Up:            Vec3{0, 1, 0},
		Gain:          0.8,
		MetersPerUnit: 1,
	})

	changed := l.Update()
	assert.True(t, changed)

	m := l.Active
	assert.InDelta(t, 1.0, m.Right.Len(), 1e-5)
	assert.InDelta(t, 1.0, m.Up.Len(), 1e-5)
	assert.InDelta(t, 1.0, m.NegForward.Len(), 1e-5)
	assert.InDelta(t, 0, m.Right.Dot(m.Up), 1e-5)
	assert.InDelta(t, 0, m.Right.Dot(m.NegForward), 1e-5)
	assert.Equal(t, Vec3{1, 2, 3}, m.Position)
	assert.Equal(t, float32(0.8), m.Gain)
}

func TestListenerUpdateReturnsFalseWithNoPendingSnapshot(t *testing.T) {
	var l Listener
	l.Set(ListenerProps{Forward: Vec3{0, 0, -1}, Up: Vec3{0, 1, 0}})
	require := l.Update()
	assert.True(t, require)

	// Nothing published since the last consume.
	assert.False(t, l.Update())
}

func TestTransformPointIsRelativeToListenerPosition(t *testing.T) {
	var l Listener
	l.Set(ListenerProps{
		Position: Vec3{0, 0, 0},
		Forward:  Vec3{0, 0, -1},
		Up:       Vec3{0, 1, 0},
	})
	l.Update()
	m := l.Active

	// A point one unit in front of the listener (world -Z) should land on
	// the listener-space -Z axis at distance 1 (the third row is -Forward).
	p := m.TransformPoint(Vec3{0, 0, -1})
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 0, p[1], 1e-5)
	assert.InDelta(t, -1, p[2], 1e-5)
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	var l Listener
	l.Set(ListenerProps{
		Position: Vec3{10, 20, 30},
		Forward:  Vec3{0, 0, -1},
		Up:       Vec3{0, 1, 0},
	})
	l.Update()
	m := l.Active

	d1 := m.TransformDirection(Vec3{0, 0, -1})
	// Moving the listener position must not change a pure direction transform.
	m.Position = Vec3{0, 0, 0}
	d2 := m.TransformDirection(Vec3{0, 0, -1})
	assert.Equal(t, d1, d2)
}
