package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/signalix/phoneauth/internal/logger"
	"go.uber.org/zap"
)

// CodeSender delivers a freshly issued one-time code to the phone owner.
type CodeSender interface {
	Send(ctx context.Context, phone, code string, expiresAt time.Time) error
}

// LogSender is the development CodeSender: it only logs. The plaintext code is
// logged at debug level so production log levels never see it.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("code_sender")}
}

// Send logs the delivery.
func (s *LogSender) Send(_ context.Context, phone, code string, expiresAt time.Time) error {
	s.logger.Info("auth code issued", logger.Phone(phone), zap.Time("expires_at", expiresAt))
	s.logger.Debug("auth code value", logger.Phone(phone), zap.String("code", code))
	return nil
}

// MessageWriter is the subset of *kafka.Writer used by KafkaSender.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// codeMessage is the payload consumed by the SMS delivery worker.
type codeMessage struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// KafkaSender publishes codes to a topic read by the SMS gateway. Messages are
// keyed by phone so deliveries for one phone stay ordered.
type KafkaSender struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaWriter builds the kafka-go writer for the code topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// NewKafkaSender creates a KafkaSender around writer.
func NewKafkaSender(writer MessageWriter, logger *zap.Logger) *KafkaSender {
	return &KafkaSender{writer: writer, logger: logger.Named("kafka_code_sender")}
}

// Send publishes the code.
func (s *KafkaSender) Send(ctx context.Context, phone, code string, expiresAt time.Time) error {
	value, err := json.Marshal(codeMessage{Phone: phone, Code: code, ExpiresAt: expiresAt.UTC()})
	if err != nil {
		return fmt.Errorf("encode code message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(phone),
		Value: value,
		Time:  time.Now(),
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish code: %w", err)
	}
	s.logger.Debug("auth code published", logger.Phone(phone))
	return nil
}
