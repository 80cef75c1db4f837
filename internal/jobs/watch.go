package jobs

import (
	"context"
	"time"
)

// Watch streams snapshots of the job on the returned channel whenever
// its progress or state changes, closing it after a terminal snapshot
// has been delivered or ctx is canceled. The initial snapshot is always
// sent.
func (m *Manager) Watch(ctx context.Context, jobID string, interval time.Duration) (<-chan Job, error) {
	first, err := m.Get(jobID)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	ch := make(chan Job, 1)
	ch <- first

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(ch)

		if first.State.Terminal() {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := first
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.ctx.Done():
				return
			case <-ticker.C:
			}

			job, err := m.Get(jobID)
			if err != nil {
				return
			}
			if job.Progress == last.Progress && job.State == last.State {
				continue
			}
			last = job

			select {
			case ch <- job:
			case <-ctx.Done():
				return
			}

			if job.State.Terminal() {
				return
			}
		}
	}()
	return ch, nil
}
