package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/SMC-RentalService/internal/infra/events"
)

const exchangeName = "booking_topic"

// Config параметры подключения к RabbitMQ
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Connect устанавливает соединение с RabbitMQ
func Connect(cfg Config) (*amqp091.Connection, error) {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)

	conn, err := amqp091.Dial(connStr)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to connect: %w", err)
	}

	return conn, nil
}

// Publisher публикует доменные события бронирований в topic exchange
// Routing key события совпадает с его типом (booking.confirmed, booking.failed, ...)
type Publisher struct {
	conn *amqp091.Connection
}

// NewPublisher создает publisher и объявляет exchange
func NewPublisher(conn *amqp091.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to declare exchange %s: %w", exchangeName, err)
	}

	return &Publisher{conn: conn}, nil
}

// PublishBookingEvent публикует событие с routing key по его типу
func (p *Publisher) PublishBookingEvent(ctx context.Context, event events.BookingEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: failed to marshal event: %w", err)
	}

	err = ch.PublishWithContext(
		ctx,
		exchangeName,
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: failed to publish %s: %w", event.Type, err)
	}

	return nil
}
