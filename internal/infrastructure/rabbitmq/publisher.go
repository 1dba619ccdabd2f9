package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/minishop-payment/internal/observability"
	"github.com/Zhima-Mochi/minishop-payment/internal/observability/logctx"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange   = "robot-shop"
	DefaultRoutingKey = "orders"

	exchangeKind       = amqp.ExchangeDirect
	componentPublisher = "amqp_publisher"
)

// Publisher delivers JSON messages to a fixed exchange and routing key. The connection
// is opened on first use; a publish that fails on a closed connection reconnects once
// and retries once. Calls are serialised so the single channel is never shared.
type Publisher struct {
	url        string
	exchange   string
	routingKey string
	dial       Dialer
	log        observability.Logger

	mu      sync.Mutex
	conn    Connection
	channel Channel
}

type Option func(*Publisher)

func WithDialer(d Dialer) Option {
	return func(p *Publisher) {
		if d != nil {
			p.dial = d
		}
	}
}

func WithExchange(exchange, routingKey string) Option {
	return func(p *Publisher) {
		if exchange != "" {
			p.exchange = exchange
		}
		if routingKey != "" {
			p.routingKey = routingKey
		}
	}
}

func NewPublisher(url string, logger observability.Logger, opts ...Option) *Publisher {
	if logger == nil {
		logger = observability.NopLogger()
	}
	p := &Publisher{
		url:        url,
		exchange:   DefaultExchange,
		routingKey: DefaultRoutingKey,
		dial:       Dial,
		log:        logger.With(observability.F("component", componentPublisher)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Exchange() string   { return p.exchange }
func (p *Publisher) RoutingKey() string { return p.routingKey }

// Publish encodes msg as JSON and sends it with headers on the message envelope.
func (p *Publisher) Publish(ctx context.Context, msg any, headers observability.TraceHeaders) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rabbitmq: encode message: %w", err)
	}
	logger := logctx.FromOr(ctx, p.log).With(observability.F("component", componentPublisher))

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		if err := p.connect(logger); err != nil {
			return err
		}
	}

	err = p.publish(ctx, body, headers)
	if err == nil {
		logger.Info("message_sent", observability.F("routing_key", p.routingKey))
		return nil
	}
	if !IsConnectionClosed(err) {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}

	logger.Warn("broker_reconnecting", observability.F("error", err.Error()))
	if err := p.connect(logger); err != nil {
		return err
	}
	if err := p.publish(ctx, body, headers); err != nil {
		return fmt.Errorf("rabbitmq: publish after reconnect: %w", err)
	}
	logger.Info("message_sent",
		observability.F("routing_key", p.routingKey),
		observability.F("reconnected", true),
	)
	return nil
}

// Close releases the connection. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn := p.conn
	p.conn, p.channel = nil, nil
	if conn == nil || conn.IsClosed() {
		return nil
	}
	p.log.Info("broker_connection_closing")
	if err := conn.Close(); err != nil && !IsConnectionClosed(err) {
		return fmt.Errorf("rabbitmq: close: %w", err)
	}
	return nil
}

// connect reuses an open connection and always opens a fresh channel, declaring the
// exchange on it.
func (p *Publisher) connect(logger observability.Logger) error {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dial(p.url)
		if err != nil {
			return fmt.Errorf("rabbitmq: dial: %w", err)
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("rabbitmq: declare exchange %q: %w", p.exchange, err)
	}
	p.channel = ch

	logger.Info("broker_connected",
		observability.F("exchange", p.exchange),
		observability.F("exchange_kind", exchangeKind),
	)
	return nil
}

func (p *Publisher) publish(ctx context.Context, body []byte, headers observability.TraceHeaders) error {
	table := make(amqp.Table, len(headers))
	for k, v := range headers {
		table[k] = v
	}
	return p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      table,
		Body:         body,
	})
}

// IsConnectionClosed reports whether err means the connection or channel is gone.
func IsConnectionClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp.ErrClosed) {
		return true
	}
	var aerr *amqp.Error
	if errors.As(err, &aerr) {
		return aerr.Code == amqp.ConnectionForced || aerr.Code == amqp.ChannelError
	}
	return false
}
