package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/vms/pkg/config"
	"github.com/diagnosis/vms/pkg/database"
	"github.com/diagnosis/vms/pkg/logger"
)

// Publisher broadcasts real-time notifications. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

// New picks the backend named in cfg.Events.Backend.
func New(cfg *config.Config) (Publisher, error) {
	switch cfg.Events.Backend {
	case "nats":
		return NewNATSEventBus(cfg.NATS.URL)
	case "redis":
		return NewRedisEventBus(cfg.Redis)
	case "none", "":
		return NopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url, nats.Name("vms-api"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "bytes", len(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

// RedisEventBus publishes on Redis pub/sub channels named after the subject.
type RedisEventBus struct {
	client *redis.Client
}

func NewRedisEventBus(cfg config.RedisConfig) (*RedisEventBus, error) {
	client, err := database.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &RedisEventBus{client: client}, nil
}

func (r *RedisEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "channel", subject, "bytes", len(payload))

	return r.client.Publish(ctx, subject, payload).Err()
}

func (r *RedisEventBus) Close() error {
	return r.client.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }

const (
	VisitorCheckIn   = "visitor-checkin"
	VisitorCheckOut  = "visitor-checkout"
	EmergencyCreated = "emergency-created"
	EmergencyUpdated = "emergency-updated"
)

type VisitorEvent struct {
	VisitorID    int64      `json:"visitorId"`
	BadgeID      string     `json:"badgeId"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Company      string     `json:"company,omitempty"`
	Purpose      string     `json:"purpose"`
	Location     string     `json:"location"`
	Status       string     `json:"status"`
	CheckInTime  time.Time  `json:"checkInTime"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty"`
}

type EmergencyEvent struct {
	EmergencyID  int64      `json:"emergencyId"`
	IncidentCode string     `json:"incidentCode"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Location     string     `json:"location"`
	CreatedAt    time.Time  `json:"createdAt"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
}
