package download

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytfetch/internal/model"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func downloading(name string, downloaded, total int64) model.ProgressEvent {
	return model.ProgressEvent{
		Status:          model.ProgressDownloading,
		DownloadedBytes: downloaded,
		TotalBytes:      total,
		Filename:        name,
	}
}

func finished(name string, total int64) model.ProgressEvent {
	return model.ProgressEvent{
		Status:          model.ProgressFinished,
		DownloadedBytes: total,
		TotalBytes:      total,
		Filename:        name,
	}
}

func TestProgressAggregator_Monotonic(t *testing.T) {
	clock := newFakeClock()
	const total = 1000
	agg := NewProgressAggregator(total, 10, 300*time.Millisecond, clock.Now)

	var emitted []float64
	for b := int64(0); b <= total+50; b += 37 {
		clock.Advance(time.Second)
		if snap, ok := agg.Handle(downloading("a", b, total)); ok {
			emitted = append(emitted, snap.Percent)
		}
	}

	require.NotEmpty(t, emitted)
	for i := 1; i < len(emitted); i++ {
		assert.GreaterOrEqual(t, emitted[i], emitted[i-1])
	}
	for _, p := range emitted {
		assert.LessOrEqual(t, p, MaxActivePercent)
	}
	assert.Equal(t, MaxActivePercent, emitted[len(emitted)-1])
}

func TestProgressAggregator_MultiStream(t *testing.T) {
	tests := []struct {
		a, b, k int64
	}{
		{60, 40, 0},
		{60, 40, 20},
		{60, 40, 39},
		{1000, 3000, 1500},
		{1, 1, 0},
	}

	for _, tt := range tests {
		agg := NewProgressAggregator(tt.a+tt.b, 10, time.Millisecond, nil)

		agg.Handle(downloading("v", tt.a, tt.a))
		agg.Handle(finished("v", tt.a))
		agg.Handle(downloading("a", tt.k, tt.b))

		expected := 100 * float64(tt.a+tt.k) / float64(tt.a+tt.b)
		if expected > MaxActivePercent {
			expected = MaxActivePercent
		}
		assert.InDelta(t, expected, agg.Percent(), 1e-9, "A=%d B=%d k=%d", tt.a, tt.b, tt.k)

		state := agg.State()
		assert.Equal(t, tt.a, state.FinishedBytes)
		assert.Equal(t, tt.k, state.CurrentFileBytes)
		assert.Equal(t, 1, state.SubFilesCompleted)
	}
}

func TestProgressAggregator_FinishedUnknownSize(t *testing.T) {
	agg := NewProgressAggregator(100, 10, time.Millisecond, nil)

	agg.Handle(downloading("v", 30, 0))
	_, emit := agg.Handle(model.ProgressEvent{Status: model.ProgressFinished, Filename: "v"})

	assert.False(t, emit)
	state := agg.State()
	assert.Zero(t, state.FinishedBytes)
	assert.Zero(t, state.CurrentFileBytes)
	assert.Equal(t, 1, state.SubFilesCompleted)
}

func TestProgressAggregator_UnknownTotal(t *testing.T) {
	agg := NewProgressAggregator(0, 10, time.Millisecond, nil)

	snap, ok := agg.Handle(downloading("v", 500, 0))
	require.True(t, ok)
	assert.Zero(t, snap.Percent)
	assert.Equal(t, UnknownSizeLabel, snap.Size)
}

func TestProgressAggregator_EmissionThrottle(t *testing.T) {
	clock := newFakeClock()
	agg := NewProgressAggregator(1000, 10, 300*time.Millisecond, clock.Now)

	_, ok := agg.Handle(downloading("v", 10, 1000))
	assert.True(t, ok, "first event emits")

	clock.Advance(100 * time.Millisecond)
	_, ok = agg.Handle(downloading("v", 20, 1000))
	assert.False(t, ok, "within interval")

	clock.Advance(100 * time.Millisecond)
	_, ok = agg.Handle(downloading("v", 30, 1000))
	assert.False(t, ok, "still within interval")

	clock.Advance(250 * time.Millisecond)
	_, ok = agg.Handle(downloading("v", 40, 1000))
	assert.True(t, ok, "interval elapsed")

	_, ok = agg.Handle(downloading("v", 995, 1000))
	assert.True(t, ok, "near completion always emits")
	_, ok = agg.Handle(downloading("v", 999, 1000))
	assert.True(t, ok, "near completion always emits")
}

func TestProgressAggregator_SpeedWindow(t *testing.T) {
	clock := newFakeClock()
	agg := NewProgressAggregator(100*bytesPerMB, 3, time.Millisecond, clock.Now)

	snap, _ := agg.Handle(downloading("v", 1, 0))
	assert.Equal(t, UnknownSpeedLabel, snap.Speed)

	for _, s := range []float64{1, 2, 3} {
		clock.Advance(time.Second)
		ev := downloading("v", 2, 0)
		ev.Speed = s * bytesPerMB
		agg.Handle(ev)
	}
	assert.InDelta(t, 2*bytesPerMB, agg.AverageSpeed(), 1e-6)

	// oldest sample is evicted
	clock.Advance(time.Second)
	ev := downloading("v", 3, 0)
	ev.Speed = 7 * bytesPerMB
	snap, ok := agg.Handle(ev)
	require.True(t, ok)
	assert.InDelta(t, 4*bytesPerMB, agg.AverageSpeed(), 1e-6)
	assert.Equal(t, "4.00 MB/s", snap.Speed)

	// non-positive speeds are ignored
	clock.Advance(time.Second)
	agg.Handle(downloading("v", 4, 0))
	assert.InDelta(t, 4*bytesPerMB, agg.AverageSpeed(), 1e-6)
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		eta      time.Duration
		known    bool
		expected string
	}{
		{0, false, "--:--"},
		{0, true, "00:00"},
		{5 * time.Second, true, "00:05"},
		{90 * time.Second, true, "01:30"},
		{59*time.Minute + 59*time.Second, true, "59:59"},
		{time.Hour, true, "1:00:00"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, true, "2:03:04"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatETA(tt.eta, tt.known))
		})
	}
}

func TestFormatLabels(t *testing.T) {
	assert.Equal(t, "-- MB/s", FormatSpeed(0))
	assert.Equal(t, "1.50 MB/s", FormatSpeed(1.5*bytesPerMB))
	assert.Equal(t, "---", FormatSize(0))
	assert.Equal(t, "100.0 MB", FormatSize(100*bytesPerMB))
	assert.Equal(t, "0.5 MB", FormatSize(bytesPerMB/2))
}
