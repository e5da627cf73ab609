package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how far a sweep or a single run has got.
type ProgressBar struct {
	sync.Mutex
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished adds a certain amount to the finished count.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// UpdateProgress sets the finished count. Lab blips report absolute
// completion counts, so the bar follows them instead of accumulating.
func (b *ProgressBar) UpdateProgress(finished uint64) {
	b.Lock()
	defer b.Unlock()

	if finished > b.Total {
		finished = b.Total
	}

	b.Finished = finished
}

// Progress is a point-in-time copy of a ProgressBar.
type Progress struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// Snapshot returns the current state of the bar.
func (b *ProgressBar) Snapshot() Progress {
	b.Lock()
	defer b.Unlock()

	return Progress{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}
