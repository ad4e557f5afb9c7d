package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaSender_Send(t *testing.T) {
	w := &fakeWriter{}
	s := NewKafkaSender(w, zap.NewNop())
	expiresAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Send(context.Background(), testPhone, "123456", expiresAt))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, testPhone, string(w.msgs[0].Key))

	var got codeMessage
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, testPhone, got.Phone)
	assert.Equal(t, "123456", got.Code)
	assert.True(t, expiresAt.Equal(got.ExpiresAt))
}

func TestKafkaSender_SendError(t *testing.T) {
	s := NewKafkaSender(&fakeWriter{err: errors.New("leader not available")}, zap.NewNop())

	err := s.Send(context.Background(), testPhone, "123456", time.Now())
	assert.ErrorContains(t, err, "publish code")
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "auth-codes")
	assert.Equal(t, "auth-codes", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
}

func TestLogSender_CodeOnlyAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), testPhone, "987654", time.Now().Add(time.Minute)))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "auth code issued", entries[0].Message)
	for _, f := range entries[0].Context {
		assert.NotEqual(t, "987654", f.String)
		assert.NotEqual(t, testPhone, f.String)
	}
}

func TestLogSender_DebugIncludesCode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), testPhone, "987654", time.Now()))

	debug := logs.FilterMessage("auth code value").All()
	require.Len(t, debug, 1)
	assert.Equal(t, "987654", debug[0].ContextMap()["code"])
}
