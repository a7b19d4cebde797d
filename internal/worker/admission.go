package worker

import (
	"context"
	"time"
)

// acquire reserves a queue slot and then the single in-flight slot.
// Returns a release func to be deferred.
func (w *Worker) acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(w.maxWait)
	defer timer.Stop()

	select {
	case w.queueCh <- struct{}{}:
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{model: w.model}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-w.queueCh
		}
	}()
	select {
	case w.genCh <- struct{}{}:
		acquired = true
		return func() { <-w.genCh; <-w.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{model: w.model}
	}
}
