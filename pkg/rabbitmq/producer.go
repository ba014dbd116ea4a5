/**
 * @description
 * This package provides a simple producer for publishing survey-service events
 * to RabbitMQ. Downstream collaborators (the response collection pipeline and
 * billing reconciliation) subscribe to these events; the service itself never
 * depends on them being consumed.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// EventsExchange is the durable topic exchange all service events go to.
const EventsExchange = "pollcraft.events"

// SurveyActivatedEvent is published when a survey's token cost has been debited
// and its status flipped to active. The response pipeline starts delivery on it.
type SurveyActivatedEvent struct {
	SurveyID   uuid.UUID `json:"survey_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	AudienceID uuid.UUID `json:"audience_id"`
	TokenCost  int64     `json:"token_cost"`
}

// TokensPurchasedEvent is published after a purchase is applied to the ledger.
type TokensPurchasedEvent struct {
	UserID            uuid.UUID `json:"user_id"`
	Amount            int64     `json:"amount"`
	ExternalReference string    `json:"external_reference"`
	NewBalance        int64     `json:"new_balance"`
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
// Request handlers publish concurrently, so the shared channel is guarded by a
// mutex; the reopen-on-failure path swaps it under the same lock.
type EventProducer struct {
	conn *amqp091.Connection

	mu      sync.Mutex
	channel *amqp091.Channel
}

func (p *EventProducer) currentChannel() *amqp091.Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel
}

func (p *EventProducer) replaceChannel(ch *amqp091.Channel) {
	p.mu.Lock()
	p.channel = ch
	p.mu.Unlock()
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	PublishSurveyActivated(ctx context.Context, event SurveyActivatedEvent) error
	PublishTokensPurchased(ctx context.Context, event TokensPurchasedEvent) error
	Close()
}

// EventProducerFallback is a minimal no-op publisher used when RabbitMQ is unavailable at startup.
type EventProducerFallback struct{}

func (p *EventProducerFallback) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"publish skipped\" exchange=%s routing_key=%s", exchange, routingKey)
	return nil
}

func (p *EventProducerFallback) PublishSurveyActivated(ctx context.Context, event SurveyActivatedEvent) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"survey activated event publish skipped\" survey_id=%s", event.SurveyID)
	return nil
}

func (p *EventProducerFallback) PublishTokensPurchased(ctx context.Context, event TokensPurchasedEvent) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"tokens purchased event publish skipped\" user_id=%s", event.UserID)
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch}, nil
}

// Publish sends a message to a specific exchange with a routing key.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	ch := p.currentChannel()

	// Ensure the exchange exists (durable topic)
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"exchange declare failed; reopening channel\" exchange=%s err=%v", exchange, err)
		// Attempt simple channel reopen once
		if p.conn == nil {
			return err
		}
		fresh, chErr := p.conn.Channel()
		if chErr != nil {
			return chErr
		}
		p.replaceChannel(fresh)
		ch = fresh
		if err2 := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err2 != nil {
			return err2
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Printf("level=error component=rabbitmq_producer msg=\"json marshal failed\" exchange=%s routing_key=%s err=%v", exchange, routingKey, err)
		return err
	}

	err = ch.PublishWithContext(ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        jsonBody,
		},
	)
	if err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"publish failed; reopening channel\" exchange=%s routing_key=%s err=%v", exchange, routingKey, err)
		// One-shot retry: reopen channel and try again
		if p.conn != nil {
			if fresh, chErr := p.conn.Channel(); chErr == nil {
				p.replaceChannel(fresh)
				if exErr := fresh.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); exErr == nil {
					err = fresh.PublishWithContext(ctx, exchange, routingKey, false, false, amqp091.Publishing{
						ContentType: "application/json",
						Timestamp:   time.Now(),
						Body:        jsonBody,
					})
					if err == nil {
						return nil
					}
				}
			}
		}
		return err
	}
	return nil
}

// PublishSurveyActivated publishes a survey activation event.
func (p *EventProducer) PublishSurveyActivated(ctx context.Context, event SurveyActivatedEvent) error {
	return p.Publish(ctx, EventsExchange, "survey.activated", event)
}

// PublishTokensPurchased publishes a token purchase event.
func (p *EventProducer) PublishTokensPurchased(ctx context.Context, event TokensPurchasedEvent) error {
	return p.Publish(ctx, EventsExchange, "tokens.purchased", event)
}

// Close shuts down the channel and connection.
func (p *EventProducer) Close() {
	if ch := p.currentChannel(); ch != nil {
		ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
