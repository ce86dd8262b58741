package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"spendwise/internal/logger"
	"spendwise/internal/uuid"
)

// amqpChannel is the part of *amqp091.Channel the bridge publishes through.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Bridge relays events between API instances over a RabbitMQ fanout
// exchange. Events published locally go to the local hub immediately and
// are forwarded to the exchange; events from other instances are fed into
// the local hub.
type Bridge struct {
	local      Publisher
	ch         amqpChannel
	conn       *amqp091.Connection
	exchange   string
	instance   string
	outbound   chan Event
	deliveries <-chan amqp091.Delivery
}

// DialBridge connects to the broker, declares the exchange and binds an
// exclusive queue for this instance.
func DialBridge(url, exchange string, local Publisher, buffer int) (*Bridge, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	deliveries, err := setup(ch, exchange)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	b := newBridge(ch, deliveries, exchange, local, buffer)
	b.conn = conn
	return b, nil
}

func setup(ch *amqp091.Channel, exchange string) (<-chan amqp091.Delivery, error) {
	err := ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	// Server-named queue that lives as long as this connection.
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return nil, fmt.Errorf("start consuming: %w", err)
	}
	return deliveries, nil
}

func newBridge(ch amqpChannel, deliveries <-chan amqp091.Delivery, exchange string, local Publisher, buffer int) *Bridge {
	if buffer < 1 {
		buffer = 1
	}
	return &Bridge{
		local:      local,
		ch:         ch,
		exchange:   exchange,
		instance:   uuid.New(),
		outbound:   make(chan Event, buffer),
		deliveries: deliveries,
	}
}

// Publish delivers ev locally and queues it for the exchange. When the
// outbound queue is full the remote copy is dropped.
func (b *Bridge) Publish(ctx context.Context, ev Event) {
	b.local.Publish(ctx, ev)

	select {
	case b.outbound <- ev:
	default:
		logger.Named("notifier").Warnw("outbound queue full, event not forwarded", "event", ev.Name, "owner", ev.Owner)
	}
}

// Run forwards and consumes events until ctx is cancelled or the broker
// closes the delivery channel.
func (b *Bridge) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.publishLoop(ctx) })
	g.Go(func() error { return b.consumeLoop(ctx) })
	return g.Wait()
}

func (b *Bridge) publishLoop(ctx context.Context) error {
	log := logger.Named("notifier")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.outbound:
			body, err := json.Marshal(ev)
			if err != nil {
				log.Errorw("failed to encode event", "event", ev.Name, "error", err)
				continue
			}

			pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = b.ch.PublishWithContext(
				pubCtx,
				b.exchange, // exchange
				"",         // routing key, ignored by fanout
				false,      // mandatory
				false,      // immediate
				amqp091.Publishing{
					ContentType: "application/json",
					AppId:       b.instance,
					Type:        ev.Name,
					Timestamp:   time.Now(),
					Body:        body,
				},
			)
			cancel()
			if err != nil {
				log.Warnw("failed to forward event", "event", ev.Name, "error", err)
			}
		}
	}
}

func (b *Bridge) consumeLoop(ctx context.Context) error {
	log := logger.Named("notifier")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-b.deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			// Our own events were already delivered locally.
			if d.AppId == b.instance {
				continue
			}

			var ev Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				log.Warnw("discarding malformed event", "error", err)
				continue
			}
			b.local.Publish(ctx, ev)
		}
	}
}

// Close closes the channel and connection.
func (b *Bridge) Close() error {
	err := b.ch.Close()
	if b.conn != nil {
		if cerr := b.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
