package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKafkaWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeKafkaWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	writer := &fakeKafkaWriter{}
	pub := &KafkaPublisher{writer: writer, topic: "socialstakes.events"}

	err := pub.Publish(context.Background(), "bets.joined", "bet:3", []byte(`{"ok":true}`))
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, []byte("bet:3"), msg.Key)
	assert.Equal(t, []byte(`{"ok":true}`), msg.Value)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "subject", msg.Headers[0].Key)
	assert.Equal(t, []byte("bets.joined"), msg.Headers[0].Value)

	require.NoError(t, pub.Close())
	assert.True(t, writer.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	writer := &fakeKafkaWriter{err: errors.New("leader not available")}
	pub := &KafkaPublisher{writer: writer, topic: "socialstakes.events"}

	err := pub.Publish(context.Background(), "bets.joined", "bet:3", nil)
	assert.ErrorContains(t, err, "socialstakes.events")
	assert.ErrorContains(t, err, "leader not available")
}

func TestNewKafkaPublisher(t *testing.T) {
	pub := NewKafkaPublisher([]string{"localhost:9092", "localhost:9093"}, "events")

	writer, ok := pub.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "events", writer.Topic)
	assert.IsType(t, &kafka.Hash{}, writer.Balancer)
}
