package notifier

import (
	"context"
	"fmt"
)

// Queue is a bounded in-process message queue, the closest analogue to the
// on-screen display queue on the device. Notify never blocks; messages beyond
// capacity are dropped.
type Queue struct {
	ch chan Message
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}

	return &Queue{ch: make(chan Message, size)}
}

func (q *Queue) Notify(_ context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	default:
		return fmt.Errorf("notification queue full, dropped %q", msg.Text)
	}
}

// Messages exposes the queued messages for a consumer to display.
func (q *Queue) Messages() <-chan Message {
	return q.ch
}
