// internal/app/features/contact/dispatch.go
package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/skms/website/internal/app/mailer"
	"golang.org/x/sync/errgroup"
)

// DispatchResult records which of the two messages were delivered.
// A failed send is never retried or compensated.
type DispatchResult int

const (
	NeitherSent DispatchResult = iota
	BusinessNotifiedOnly
	AcknowledgementOnly
	BothSent
)

func (r DispatchResult) String() string {
	switch r {
	case BothSent:
		return "both_sent"
	case BusinessNotifiedOnly:
		return "business_notified_only"
	case AcknowledgementOnly:
		return "acknowledgement_only"
	default:
		return "neither_sent"
	}
}

func resultOf(notified, acknowledged bool) DispatchResult {
	switch {
	case notified && acknowledged:
		return BothSent
	case notified:
		return BusinessNotifiedOnly
	case acknowledged:
		return AcknowledgementOnly
	default:
		return NeitherSent
	}
}

// dispatch sends both messages concurrently and waits for both. A failing
// send does not cancel the other one. The returned error joins every
// send failure.
func dispatch(ctx context.Context, t mailer.Transport, notification, ack mailer.Message) (DispatchResult, error) {
	var (
		g                 errgroup.Group
		notifyErr, ackErr error
	)
	g.Go(func() error {
		notifyErr = safeSend(ctx, t, notification)
		return notifyErr
	})
	g.Go(func() error {
		ackErr = safeSend(ctx, t, ack)
		return ackErr
	})
	_ = g.Wait()

	result := resultOf(notifyErr == nil, ackErr == nil)
	var errs []error
	if notifyErr != nil {
		errs = append(errs, fmt.Errorf("business notification: %w", notifyErr))
	}
	if ackErr != nil {
		errs = append(errs, fmt.Errorf("acknowledgement: %w", ackErr))
	}
	return result, errors.Join(errs...)
}

// safeSend converts a transport panic into an error. Panics in errgroup
// goroutines are not caught by the HTTP recoverer.
func safeSend(ctx context.Context, t mailer.Transport, msg mailer.Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("transport panic: %v", rec)
		}
	}()
	return t.Send(ctx, msg)
}
