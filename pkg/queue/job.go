package queue

import (
	"context"
	"errors"
)

// Job handles one message type.
type Job interface {
	// Type is the message type the job consumes.
	Type() string

	// Handle processes the raw JSON payload.
	Handle(ctx context.Context, payload []byte) error
}

// IsPermanent reports whether err opts out of retries. Any error in the chain
// with a Permanent() bool method returning true qualifies.
func IsPermanent(err error) bool {
	var p interface{ Permanent() bool }
	return errors.As(err, &p) && p.Permanent()
}
