package worker

import (
	"context"
	"fmt"
	"time"
)

// Await polls the mailbox every PollInterval until the reply for id
// arrives. It gives up with ErrTimeout after MaxWait, or when ctx is done;
// the reply for id is then discarded.
func (w *GameWorker) Await(ctx context.Context, id string) (Event, error) {
	if ev, ok := w.Poll(id); ok {
		return ev, nil
	}
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(w.config.MaxWait)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			w.abandon(id)
			return Event{}, ctx.Err()
		case <-deadline.C:
			w.abandon(id)
			return Event{}, fmt.Errorf("%w: no reply to %s after %s", ErrTimeout, id, w.config.MaxWait)
		case <-ticker.C:
			if ev, ok := w.Poll(id); ok {
				return ev, nil
			}
		}
	}
}

// Do submits cmd and waits for its reply. A command that failed inside the
// worker is returned as an error alongside the reply.
func (w *GameWorker) Do(ctx context.Context, cmd Command) (Event, error) {
	id, err := w.Submit(ctx, cmd)
	if err != nil {
		return Event{}, err
	}
	ev, err := w.Await(ctx, id)
	if err != nil {
		return ev, err
	}
	return ev, ev.Err
}
