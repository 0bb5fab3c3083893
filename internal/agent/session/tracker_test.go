package session

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestCaptureIsOneShot(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	tr := NewTracker(clk, 30)

	_, ok := tr.Capture()
	assert.False(t, ok)

	tr.Start()
	clk.Advance(2*time.Second + 400*time.Millisecond)
	assert.Equal(t, 2400*time.Millisecond, tr.Live())

	secs, ok := tr.Capture()
	assert.True(t, ok)
	assert.EqualValues(t, 2, secs)

	_, ok = tr.Capture()
	assert.False(t, ok)
	assert.Zero(t, tr.Live())
}

func TestCaptureAppliesFloor(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	tr := NewTracker(clk, 30)

	tr.Start()
	clk.Advance(500 * time.Millisecond)
	secs, ok := tr.Capture()
	assert.True(t, ok)
	assert.EqualValues(t, 30, secs)
}
