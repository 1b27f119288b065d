package notify

import (
	"context"
	"errors"

	id "gatepass/pkg/domain"
)

// MultiSink fans a message out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) PublishTopic(ctx context.Context, topic string, msg Message) error {
	var errs []error
	for _, s := range m {
		if err := s.PublishTopic(ctx, topic, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) PublishUser(ctx context.Context, userID id.UserID, msg Message) error {
	var errs []error
	for _, s := range m {
		if err := s.PublishUser(ctx, userID, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
