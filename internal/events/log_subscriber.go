package events

import (
	"context"

	"go.uber.org/zap"
)

// LogSubscriber writes every published domain event to the structured
// log. It is observability plumbing only; nothing is delivered outside
// the process.
type LogSubscriber struct {
	logger *zap.Logger
}

// NewLogSubscriber constructs the subscriber.
func NewLogSubscriber(logger *zap.Logger) *LogSubscriber {
	return &LogSubscriber{logger: logger}
}

// Register subscribes to all ticket events.
func (s *LogSubscriber) Register(dispatcher Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range []EventType{
		EventTicketCreated,
		EventTicketStatusChanged,
		EventTicketAssigned,
		EventTicketCancelled,
	} {
		dispatcher.Subscribe(eventType, s.handle)
	}
}

func (s *LogSubscriber) handle(_ context.Context, event Event) error {
	s.logger.Info("ticket event",
		zap.String("type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload),
	)
	return nil
}
