package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/temaribet/lms/pkg/kafka"

	"github.com/temaribet/lms/internal/domain"
)

// Kafka topic constants for auth domain events.
const (
	TopicUserRegistered = "lms.user.registered"
	TopicUserLoggedIn   = "lms.user.logged_in"
	TopicSessionRevoked = "lms.session.revoked"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from this service.
const SourceLMS = "lms"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

// UserLoggedInData is the payload for a user.logged_in event. Method is
// "password" or "miniapp".
type UserLoggedInData struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Method string `json:"method"`
}

// SessionRevokedData is the payload for a session.revoked event.
type SessionRevokedData struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// Producer publishes auth domain events to Kafka. Publishing is best effort;
// a broker outage never blocks a login.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
		Role:  user.Role.Name,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceLMS, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishUserLoggedIn publishes a user.logged_in event.
func (p *Producer) PublishUserLoggedIn(ctx context.Context, user *domain.User, method string) error {
	data := UserLoggedInData{
		UserID: user.ID,
		Role:   user.Role.Name,
		Method: method,
	}

	event, err := pkgkafka.NewEvent(TopicUserLoggedIn, user.ID, AggregateTypeUser, SourceLMS, data)
	if err != nil {
		return fmt.Errorf("create user.logged_in event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserLoggedIn, event); err != nil {
		return fmt.Errorf("publish user.logged_in event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.logged_in event",
		slog.String("user_id", user.ID),
		slog.String("method", method),
	)

	return nil
}

// PublishSessionRevoked publishes a session.revoked event.
func (p *Producer) PublishSessionRevoked(ctx context.Context, userID, reason string) error {
	data := SessionRevokedData{
		UserID: userID,
		Reason: reason,
	}

	event, err := pkgkafka.NewEvent(TopicSessionRevoked, userID, AggregateTypeUser, SourceLMS, data)
	if err != nil {
		return fmt.Errorf("create session.revoked event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionRevoked, event); err != nil {
		return fmt.Errorf("publish session.revoked event: %w", err)
	}

	p.logger.DebugContext(ctx, "published session.revoked event",
		slog.String("user_id", userID),
		slog.String("reason", reason),
	)

	return nil
}
