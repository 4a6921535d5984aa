package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// ErrSinkClosed is returned when forwarding to a stopped sink.
var ErrSinkClosed = errors.New("kafka sink closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards envelopes to a Kafka topic from a background loop.
type KafkaSink struct {
	w       messageWriter
	inbox   chan kafka.Message
	done    chan struct{}
	logger  zerolog.Logger
	timeout time.Duration
}

// NewKafkaSink creates a sink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string, buf int, logger *zerolog.Logger) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return newKafkaSink(w, buf, logger)
}

func newKafkaSink(w messageWriter, buf int, logger *zerolog.Logger) *KafkaSink {
	if buf <= 0 {
		buf = 256
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "kafka_sink").Logger()
	}
	return &KafkaSink{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		done:    make(chan struct{}),
		logger:  l,
		timeout: 10 * time.Second,
	}
}

// Start runs the write loop until ctx is done, then flushes what is queued.
func (s *KafkaSink) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		for {
			select {
			case <-ctx.Done():
				s.drain()
				if err := s.w.Close(); err != nil {
					s.logger.Warn().Err(err).Msg("close kafka writer")
				}
				return
			case m := <-s.inbox:
				s.write(m)
			}
		}
	}()
}

func (s *KafkaSink) drain() {
	for {
		select {
		case m := <-s.inbox:
			s.write(m)
		default:
			return
		}
	}
}

func (s *KafkaSink) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.w.WriteMessages(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("key", string(m.Key)).Msg("kafka write failed")
	}
}

// Handle is a bus Handler enqueuing the envelope keyed by its correlation id.
func (s *KafkaSink) Handle(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(env.CorrelationID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}

	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}

	select {
	case <-s.done:
		return ErrSinkClosed
	case s.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the write loop has exited.
func (s *KafkaSink) Wait() { <-s.done }
