package topicquiz

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Event types published on the topic exchange; the type is the routing key.
const (
	EventQuizGenerated        = "quiz.generated"
	EventQuizGenerationFailed = "quiz.generation_failed"
	EventQuizGraded           = "quiz.graded"
)

// Publisher publishes quiz lifecycle events
type Publisher interface {
	Publish(eventType string, payload interface{}) error
}

// Event is the envelope written to the exchange
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// EventPublisher publishes JSON events to a RabbitMQ topic exchange
type EventPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewEventPublisher dials amqpURL and declares a durable topic exchange
func NewEventPublisher(amqpURL, exchange string) (*EventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &EventPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends an event with eventType as the routing key
func (p *EventPublisher) Publish(eventType string, payload interface{}) error {
	body, err := json.Marshal(Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	VerboseLog("[EVENT] %s: %s", eventType, body)

	return p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Close closes the channel and the connection
func (p *EventPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// QuizGeneratedPayload is published after a quiz is stored in a session
type QuizGeneratedPayload struct {
	QuizID    string         `json:"quiz_id"`
	CallerID  string         `json:"caller_id"`
	Topic     string         `json:"topic"`
	Questions []QuizQuestion `json:"questions"`
}

// QuizGenerationFailedPayload is published when generation fails
type QuizGenerationFailedPayload struct {
	QuizID   string `json:"quiz_id"`
	CallerID string `json:"caller_id"`
	Topic    string `json:"topic"`
	Error    string `json:"error"`
}

// QuizGradedPayload is published after a submission is graded
type QuizGradedPayload struct {
	QuizID     string  `json:"quiz_id"`
	CallerID   string  `json:"caller_id"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}
