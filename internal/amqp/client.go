package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"finboard/internal/log"
	"finboard/internal/notify"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
	dialAttempts   = 3
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Publisher sends notices to a topic exchange. The connection is dialed
// lazily and re-dialed after connection errors.
type Publisher struct {
	url          string
	exchangeName string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
	failMu       sync.Mutex
}

func NewPublisher(url, exchangeName string, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Default(log.ComponentAMQP)
	}
	return &Publisher{url: url, exchangeName: exchangeName, logger: logger}
}

func (p *Publisher) connect(ctx context.Context) error {
	if p.channel != nil && !p.channel.IsClosed() {
		return nil
	}
	p.closeLocked()

	var lastErr error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}
		conn, err := amqp091.Dial(p.url)
		if err != nil {
			lastErr = fmt.Errorf("dial AMQP: %w", err)
			continue
		}
		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			lastErr = fmt.Errorf("open channel: %w", err)
			continue
		}
		if err := ch.ExchangeDeclare(
			p.exchangeName, // name
			"topic",        // type
			true,           // durable
			false,          // auto-deleted
			false,          // internal
			false,          // no-wait
			nil,            // arguments
		); err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("declare exchange: %w", err)
		}
		p.conn, p.channel = conn, ch
		return nil
	}
	return lastErr
}

// RoutingKey is "notice.<kind>.<level>".
func RoutingKey(n notify.Notice) string {
	return "notice." + n.Kind.String() + "." + string(n.Level)
}

// Notify publishes n as a persistent JSON message.
func (p *Publisher) Notify(ctx context.Context, n notify.Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.isCircuitOpen() {
		return fmt.Errorf("publish notice: %w", ErrCircuitOpen)
	}

	body, err := MarshalNotice(n)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(ctx); err != nil {
		p.recordFailure()
		return err
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		RoutingKey(n),  // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    n.Time,
			Body:         body,
		},
	)
	if err != nil {
		p.recordFailure()
		if isConnectionError(err) {
			p.closeLocked()
		}
		return fmt.Errorf("publish notice: %w", err)
	}
	p.recordSuccess()

	p.logger.DebugContext(ctx, "published notice",
		log.FieldKind, n.Kind.String(),
		log.FieldOperation, n.Operation,
		"exchange", p.exchangeName)
	return nil
}

func (p *Publisher) isCircuitOpen() bool {
	if atomic.LoadInt32(&p.state) != StateOpen {
		return false
	}
	p.failMu.Lock()
	last := p.lastFailure
	p.failMu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&p.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (p *Publisher) recordSuccess() {
	atomic.StoreInt64(&p.failureCount, 0)
	atomic.StoreInt32(&p.state, StateClosed)
}

func (p *Publisher) recordFailure() {
	p.failMu.Lock()
	p.lastFailure = time.Now()
	p.failMu.Unlock()
	if atomic.AddInt64(&p.failureCount, 1) >= maxFailures || atomic.LoadInt32(&p.state) == StateHalfOpen {
		if atomic.SwapInt32(&p.state, StateOpen) != StateOpen {
			p.logger.Warn("notice publishing suspended", log.FieldErrorType, log.ErrorTypeNetwork)
		}
	}
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (p *Publisher) closeLocked() {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}
