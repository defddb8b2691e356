package audit

import (
	"context"
	"log/slog"

	"github.com/redisctl/im-redis/pkg/model"
)

type publisher interface {
	Publish(ctx context.Context, audit model.Audit) error
}

// NewService creates the audit service. The publisher is optional.
func NewService(logger *slog.Logger, repository *repository, broker *Broker, publisher publisher) *Service {
	return &Service{
		logger:     logger,
		repository: repository,
		broker:     broker,
		publisher:  publisher,
	}
}

type Service struct {
	logger     *slog.Logger
	repository *repository
	broker     *Broker
	publisher  publisher
}

// Record stores the audit and hands it to the event stream and the publisher. Failures are logged
// as an audit never fails the operation it describes.
func (s *Service) Record(ctx context.Context, audit model.Audit) {
	if err := s.repository.create(ctx, &audit); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store audit", "event", audit.Event, "host", audit.Host, "port", audit.Port, "error", err)
		return
	}

	s.broker.Publish(audit)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), audit); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish audit", "id", audit.ID, "event", audit.Event, "error", err)
	}
}

// FindAll lists the most recent audits first.
func (s *Service) FindAll(ctx context.Context, offset, limit int) ([]model.Audit, error) {
	return s.repository.findAll(ctx, offset, limit)
}

func (s *Service) Subscribe() (uint64, <-chan model.Audit) {
	return s.broker.Subscribe()
}

func (s *Service) Unsubscribe(id uint64) {
	s.broker.Unsubscribe(id)
}
