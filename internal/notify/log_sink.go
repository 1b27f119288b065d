package notify

import (
	"context"
	"log/slog"

	id "gatepass/pkg/domain"
	"gatepass/pkg/requestcontext"
)

// LogSink writes notifications to the structured log. It is the default when
// no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) PublishTopic(ctx context.Context, topic string, msg Message) error {
	s.logger.InfoContext(ctx, "notification published",
		"request_id", requestcontext.RequestID(ctx),
		"topic", topic,
		"title", msg.Title,
		"body", msg.Body,
	)
	return nil
}

func (s *LogSink) PublishUser(ctx context.Context, userID id.UserID, msg Message) error {
	s.logger.InfoContext(ctx, "notification sent to user",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
		"title", msg.Title,
		"body", msg.Body,
	)
	return nil
}
