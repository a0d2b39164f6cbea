package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/library-gateway/internal/events"
)

// SessionAuditService logs session transitions published by the
// coordinator.
type SessionAuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewSessionAuditService creates the service.
func NewSessionAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *SessionAuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionAuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (s *SessionAuditService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventSessionBootstrapped, s.handleBootstrapped)
	s.dispatcher.Subscribe(events.EventSessionAuthenticated, s.handleTransition)
	s.dispatcher.Subscribe(events.EventSessionRefreshed, s.handleTransition)
	s.dispatcher.Subscribe(events.EventSessionCleared, s.handleTransition)
}

func (s *SessionAuditService) handleBootstrapped(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.SessionPayload)
	s.logger.Debug(string(event.Type), append(eventFields(event), zap.Bool("authenticated", payload.Identity != nil))...)
	return nil
}

func (s *SessionAuditService) handleTransition(_ context.Context, event events.Event) error {
	s.logger.Info(string(event.Type), eventFields(event)...)
	return nil
}

func eventFields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Uint64("epoch", event.Epoch),
	}
	if payload, ok := event.Payload.(events.SessionPayload); ok && payload.Identity != nil {
		fields = append(fields,
			zap.String("user_id", payload.Identity.ID),
			zap.String("role", string(payload.Identity.Role)),
		)
	}
	return fields
}
