// Package events is the item outbox: a Watermill SQL pub/sub on the same
// PostgreSQL database as the items table.
//
// The repository calls PublishTx inside the transaction that changes a row,
// so an event exists if and only if the change committed. With
// Options.Forwarder the API writes into one outbox queue and StartForwarder
// relays it to the item topics. cmd/worker subscribes under one consumer
// group so each event is handled once across replicas. An empty
// ConsumerGroup broadcasts.
//
// Handlers must be idempotent: a failing handler is retried with doubling
// delays and then Nacked. The OTel trace context travels in message metadata.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/itemsapi/pkg/logger"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
	drainTimeout      = 30 * time.Second
	errBuffer         = 100

	outboxTopic = "_forwarder_queue"
	outboxGroup = "forwarder-consumer"

	// Metadata keys set on every message built by NewMessage.
	MetadataEventID      = "event_id"
	MetadataEventVersion = "event_version"
)

// ErrClosed is returned by operations on a closed EventBus.
var ErrClosed = errors.New("events: bus closed")

// Options configures New.
type Options struct {
	// ConsumerGroup load-balances subscribers that share it. Empty broadcasts.
	ConsumerGroup string
	// Forwarder routes published messages through the outbox queue.
	Forwarder bool
	// MaxRetries is the number of handler attempts per message; zero means 3.
	MaxRetries int
	// RetryDelay is the wait after the first failed attempt; zero means 1s.
	RetryDelay time.Duration
}

func (o *Options) applyDefaults() {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
}

// EventBus publishes item events inside caller transactions and delivers
// them to subscribers. It does not own db.
type EventBus struct {
	db    *sql.DB
	sub   *watermillsql.Subscriber
	fwd   *forwarder.Forwarder
	log   logger.Logger
	wmLog watermill.LoggerAdapter
	opts  Options
	retry retryPolicy

	inflight sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

func publisherConfig(autoInit bool) watermillsql.PublisherConfig {
	return watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: autoInit,
	}
}

func subscriberConfig(group string) watermillsql.SubscriberConfig {
	return watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}
}

// New builds the subscriber side on db. Topic tables are created when a
// topic is first subscribed to.
func New(db *sql.DB, opts Options, log logger.Logger) (*EventBus, error) {
	opts.applyDefaults()
	wmLog := &watermillLogger{log: log}

	sub, err := watermillsql.NewSubscriber(db, subscriberConfig(opts.ConsumerGroup), wmLog)
	if err != nil {
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}
	return &EventBus{
		db:    db,
		sub:   sub,
		log:   log,
		wmLog: wmLog,
		opts:  opts,
		retry: retryPolicy{attempts: opts.MaxRetries, delay: opts.RetryDelay},
	}, nil
}

// StartForwarder relays the outbox queue to the item topics until ctx ends.
// It returns once the relay is running.
func (b *EventBus) StartForwarder(ctx context.Context) error {
	if !b.opts.Forwarder {
		return errors.New("events: StartForwarder called on non-forwarder EventBus")
	}
	if b.fwd != nil {
		return errors.New("events: forwarder already started")
	}

	queue, err := watermillsql.NewSubscriber(b.db, subscriberConfig(outboxGroup), b.wmLog)
	if err != nil {
		return fmt.Errorf("events: outbox subscriber: %w", err)
	}
	target, err := watermillsql.NewPublisher(b.db, publisherConfig(true), b.wmLog)
	if err != nil {
		return errors.Join(fmt.Errorf("events: outbox target: %w", err), queue.Close())
	}
	fwd, err := forwarder.NewForwarder(queue, target, b.wmLog, forwarder.Config{ForwarderTopic: outboxTopic})
	if err != nil {
		return errors.Join(fmt.Errorf("events: forwarder: %w", err), target.Close(), queue.Close())
	}
	b.fwd = fwd

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.log.InfoContext(ctx, "events: forwarder started")
		if err := fwd.Run(ctx); err != nil {
			b.log.ErrorContext(ctx, "events: forwarder stopped", "error", err)
		}
	}()

	select {
	case <-fwd.Running():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for forwarder: %w", ctx.Err())
	}
}

// PublishTx writes msg to topic inside tx, through the outbox queue when the
// forwarder is enabled. Subscribers see it only if tx commits.
func (b *EventBus) PublishTx(ctx context.Context, tx *sql.Tx, topic string, msg *message.Message) error {
	// Topic tables already exist: DDL inside a caller transaction is avoided.
	pub, err := watermillsql.NewPublisher(tx, publisherConfig(false), b.wmLog)
	if err != nil {
		return fmt.Errorf("events: tx publisher: %w", err)
	}
	var p message.Publisher = pub
	if b.opts.Forwarder {
		p = forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: outboxTopic})
	}

	injectTrace(ctx, msg)
	if err := p.Publish(topic, msg); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish %s: %w", topic, err)
	}
	return nil
}

// NewMessage marshals payload to JSON and stamps the event metadata and the
// caller's trace context.
func NewMessage(ctx context.Context, eventID string, version int, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("events: marshal payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(MetadataEventID, eventID)
	msg.Metadata.Set(MetadataEventVersion, strconv.Itoa(version))
	injectTrace(ctx, msg)
	return msg, nil
}

func injectTrace(ctx context.Context, msg *message.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		msg.Metadata.Set(k, v)
	}
}

func extractTrace(ctx context.Context, msg *message.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))
}

// Handler processes one message. Returning an error triggers a retry.
type Handler func(context.Context, *message.Message) error

// Subscribe delivers topic to handler until ctx ends or the bus closes. A
// message is Acked when the handler accepts it and Nacked once retries are
// exhausted; the final error goes to the returned channel, which must be
// drained.
func (b *EventBus) Subscribe(ctx context.Context, topic string, handler Handler) (<-chan error, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.inflight.Add(1)
	b.mu.Unlock()

	msgs, err := b.sub.Subscribe(ctx, topic)
	if err != nil {
		b.inflight.Done()
		return nil, fmt.Errorf("events: subscribe %s: %w", topic, err)
	}

	errCh := make(chan error, errBuffer)
	go func() {
		defer b.inflight.Done()
		defer close(errCh)
		b.consume(ctx, topic, msgs, handler, errCh)
	}()
	return errCh, nil
}

func (b *EventBus) consume(ctx context.Context, topic string, msgs <-chan *message.Message, handler Handler, errCh chan<- error) {
	for msg := range msgs {
		msgCtx := extractTrace(ctx, msg)
		err := b.retry.run(msgCtx, msg, handler, b.log)
		if err == nil {
			msg.Ack()
			continue
		}
		msg.Nack()
		select {
		case errCh <- fmt.Errorf("%s: %w", topic, err):
		default:
			b.log.ErrorContext(msgCtx, "events: error channel full", "topic", topic, "error", err)
		}
	}
}

// retryPolicy runs a handler up to attempts times, doubling delay between
// attempts.
type retryPolicy struct {
	attempts int
	delay    time.Duration
}

func (p retryPolicy) run(ctx context.Context, msg *message.Message, handler Handler, log logger.Logger) error {
	delay := p.delay
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg)
		if err == nil {
			return nil
		}
		if attempt >= p.attempts {
			return fmt.Errorf("events: handler failed after %d attempts: %w", attempt, err)
		}
		log.WarnContext(ctx, "events: handler failed",
			"attempt", attempt,
			"next_delay", delay,
			"message_uuid", msg.UUID,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Ping checks the database the bus writes to.
func (b *EventBus) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops delivery and waits up to drainTimeout for running handlers.
// A second Close is a no-op.
func (b *EventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.sub.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close subscriber: %w", err))
	}
	if b.fwd != nil {
		if err := b.fwd.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: close forwarder: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		b.log.Error("events: handlers still running after drain timeout", "timeout", drainTimeout)
	}
	return errors.Join(errs...)
}

// watermillLogger routes Watermill's internal logging through logger.Logger.
// Trace output is logged at debug.
type watermillLogger struct{ log logger.Logger }

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.log.Error(msg, append(logArgs(fields), "error", err)...)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.log.Info(msg, logArgs(fields)...)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.log.Debug(msg, logArgs(fields)...)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.log.Debug(msg, logArgs(fields)...)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{log: l.log.With(logArgs(fields)...)}
}

func logArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
