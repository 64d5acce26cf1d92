package al

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMailboxPublishConsumeRoundTrip(t *testing.T) {
	var m Mailbox[SourceProps]

	assert.False(t, m.Pending())

	snap := m.Acquire()
	snap.Gain = 0.5
	m.Publish(snap)
	assert.True(t, m.Pending())

	got, ok := m.Consume()
	require.True(t, ok)
	assert.Equal(t, float32(0.5), got.Gain)
	assert.False(t, m.Pending())
	m.Release(got)

	_, ok = m.Consume()
	assert.False(t, ok, "a second Consume with nothing published must report false")
}

// TestMailboxOnlyLatestSurvives checks the single-slot handoff semantics of
// spec 4.9: publishing twice before a consume only ever exposes the latest.
func TestMailboxOnlyLatestSurvives(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var m Mailbox[SourceProps]
		values := rapid.SliceOfN(rapid.Float32Range(-1, 1), 1, 20).Draw(t, "values")

		for _, v := range values {
			snap := m.Acquire()
			snap.Gain = v
			m.Publish(snap)
		}

		got, ok := m.Consume()
		require.True(t, ok)
		assert.Equal(t, values[len(values)-1], got.Gain)
		m.Release(got)
	})
}

// TestMailboxFreeListReuse exercises the CAS free-list under concurrent
// Acquire/Release so -race can catch any lost update.
func TestMailboxFreeListReuse(t *testing.T) {
	var m Mailbox[SourceProps]
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := m.Acquire()
				snap.Gain = float32(n)
				m.Publish(snap)
				if got, ok := m.Consume(); ok {
					m.Release(got)
				}
			}
		}(i)
	}
	wg.Wait()
}
