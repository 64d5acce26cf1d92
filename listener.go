// listener.go - per-context listener and its property mailbox

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "math"

// Vec3 is a plain 3-component vector.
type Vec3 [3]float32

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }
func (v Vec3) Dot(o Vec3) float32 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}
func (v Vec3) Len() float32 {
	return sqrt32(v.Dot(v))
}
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l <= 0 {
		return v
	}
	return v.Scale(1 / l)
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// ListenerProps is the plain-data snapshot carried through the listener's
// Mailbox: every field the mixer consumes, per spec Section 3/4.8.
type ListenerProps struct {
	Position    Vec3
	Velocity    Vec3
	Forward     Vec3
	Up          Vec3
	Gain        float32
	MetersPerUnit float32
}

// ListenerMatrix is the orthonormal world->listener transform derived each
// time a new ListenerProps snapshot is consumed: rows {Right, Up, -Forward},
// with Position as the translation, per spec 4.8.
type ListenerMatrix struct {
	Right, Up, NegForward Vec3
	Position              Vec3
	Velocity              Vec3 // transformed into listener space
	Gain                  float32
	SpeedOfSoundScale     float32
}

// Listener is the one-per-context listener entity.
type Listener struct {
	mailbox Mailbox[ListenerProps]
	Active  ListenerMatrix
}

// Set publishes a new property snapshot from an API thread.
func (l *Listener) Set(p ListenerProps) {
	snap := l.mailbox.Acquire()
	*snap = p
	l.mailbox.Publish(snap)
}

// Update is the mixer-thread listener update procedure from spec 4.8: if a
// snapshot is pending, consume it, normalize forward/up, build the
// world->listener matrix, and transform velocity. Returns true if anything
// changed (forcing per-voice recomputation this block).
func (l *Listener) Update() bool {
	snap, ok := l.mailbox.Consume()
	if !ok {
		return false
	}
	defer l.mailbox.Release(snap)

	forward := snap.Forward.Normalize()
	up := snap.Up.Normalize()
	right := forward.Cross(up).Normalize()
	// Re-orthogonalize up against forward/right to guard against a
	// non-orthogonal input pair.
	up = right.Cross(forward).Normalize()

	m := ListenerMatrix{
		Right:             right,
		Up:                up,
		NegForward:        forward.Scale(-1),
		Position:          snap.Position,
		Gain:              snap.Gain,
		SpeedOfSoundScale: snap.MetersPerUnit,
	}
	m.Velocity = Vec3{right.Dot(snap.Velocity), up.Dot(snap.Velocity), forward.Scale(-1).Dot(snap.Velocity)}
	l.Active = m
	return true
}

// TransformPoint maps a world-space point into listener space: relative
// position rotated by the matrix, with no translation of velocity-like
// vectors.
func (m *ListenerMatrix) TransformPoint(p Vec3) Vec3 {
	rel := p.Sub(m.Position)
	return Vec3{m.Right.Dot(rel), m.Up.Dot(rel), m.NegForward.Dot(rel)}
}

// TransformDirection maps a world-space direction (no translation).
func (m *ListenerMatrix) TransformDirection(d Vec3) Vec3 {
	return Vec3{m.Right.Dot(d), m.Up.Dot(d), m.NegForward.Dot(d)}
}
