package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Message is a rendered notification. Channels pick the parts they support.
type Message struct {
	Subject string
	Text    string
	HTML    string
	// Speech is a short form for voice calls; falls back to Subject.
	Speech string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// PartialError is returned by Multi when some channels delivered and the
// rest failed.
type PartialError struct {
	Delivered int
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("delivered on %d channel(s), failed on others: %v", e.Delivered, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Delivered reports whether a Send error still means the message reached
// at least one channel.
func Delivered(err error) bool {
	var p *PartialError
	return err == nil || errors.As(err, &p)
}

// Multi fans a message out to every channel and reports all failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, msg Message) error {
	var err error
	ok := 0
	for _, n := range m {
		if n == nil {
			continue
		}
		if serr := n.Send(ctx, msg); serr != nil {
			err = multierr.Append(err, serr)
			continue
		}
		ok++
	}
	if err != nil && ok > 0 {
		return &PartialError{Delivered: ok, Err: err}
	}
	return err
}
