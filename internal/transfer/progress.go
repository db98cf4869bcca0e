package transfer

import "time"

// Progress describes how far a streaming body transfer has gotten, passed
// to a caller-supplied callback after each chunk.
type Progress struct {
	BytesTransferred int64
	TotalBytes       int64
	SpeedBps         float64
	ETASeconds       float64
}

// Percentage returns the completion percentage, 100 if TotalBytes is 0
// (nothing to wait for).
func (p Progress) Percentage() float64 {
	if p.TotalBytes == 0 {
		return 100
	}
	return 100 * float64(p.BytesTransferred) / float64(p.TotalBytes)
}

// IsComplete reports whether the transfer has delivered every byte.
func (p Progress) IsComplete() bool {
	return p.BytesTransferred >= p.TotalBytes
}

// ProgressFunc is called after each chunk during a streaming transfer.
type ProgressFunc func(Progress)

// progressTracker accumulates bytes transferred and computes speed/ETA
// from elapsed wall-clock time since it was created.
type progressTracker struct {
	total     int64
	started   time.Time
	callback  ProgressFunc
	delivered int64
}

func newProgressTracker(total int64, callback ProgressFunc) *progressTracker {
	return &progressTracker{total: total, started: time.Now(), callback: callback}
}

func (t *progressTracker) add(n int) {
	if t.callback == nil {
		return
	}
	t.delivered += int64(n)
	elapsed := time.Since(t.started).Seconds()
	var speed, eta float64
	if elapsed > 0 {
		speed = float64(t.delivered) / elapsed
	}
	if speed > 0 {
		eta = float64(t.total-t.delivered) / speed
	}
	t.callback(Progress{
		BytesTransferred: t.delivered,
		TotalBytes:       t.total,
		SpeedBps:         speed,
		ETASeconds:       eta,
	})
}
