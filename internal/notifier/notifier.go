// Package notifier delivers user-visible informational messages. The message
// shape mirrors the on-screen message queue the jailer fix originally pushed
// to; delivery is best effort and callers are expected to ignore failures
// beyond a log line.
package notifier

import "context"

// Values carried by the original on-screen message push.
const (
	PriorityInfo    = 1
	DefaultDuration = 180

	IconDefault  = "default"
	CategoryInfo = "info"
)

type Message struct {
	Text     string
	Priority int
	Duration int // display ticks
	Urgent   bool
	Icon     string
	Category string
}

// Info builds an informational message with the default priority, duration,
// icon and category.
func Info(text string) Message {
	return Message{
		Text:     text,
		Priority: PriorityInfo,
		Duration: DefaultDuration,
		Icon:     IconDefault,
		Category: CategoryInfo,
	}
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}
