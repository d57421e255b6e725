package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/apporbit/apporbit-server/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
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

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	UserRegistered = "user.registered"

	ProductSubmitted = "product.submitted"
	ProductAccepted  = "product.accepted"
	ProductRejected  = "product.rejected"
	ProductFeatured  = "product.featured"
	ProductUpvoted   = "product.upvoted"
	ProductReported  = "product.reported"
	ProductDeleted   = "product.deleted"
)

// Event payloads
type UserRegisteredEvent struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
}

type ProductSubmittedEvent struct {
	ProductID   int64     `json:"product_id"`
	OwnerEmail  string    `json:"owner_email"`
	Name        string    `json:"name"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ProductModeratedEvent struct {
	ProductID  int64     `json:"product_id"`
	OwnerEmail string    `json:"owner_email"`
	Status     string    `json:"status"`
	DecidedAt  time.Time `json:"decided_at"`
}

type ProductFeaturedEvent struct {
	ProductID  int64     `json:"product_id"`
	OwnerEmail string    `json:"owner_email"`
	FeaturedAt time.Time `json:"featured_at"`
}

type ProductUpvotedEvent struct {
	ProductID  int64  `json:"product_id"`
	VoterEmail string `json:"voter_email"`
	Upvotes    int    `json:"upvotes"`
}

type ProductReportedEvent struct {
	ProductID     int64     `json:"product_id"`
	ReporterEmail string    `json:"reporter_email"`
	ReportedAt    time.Time `json:"reported_at"`
}

type ProductDeletedEvent struct {
	ProductID int64  `json:"product_id"`
	Reason    string `json:"reason"`
}
