package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisherWithWriter(w, "geopoint.attendance.v1")

	event := Event{
		Type:          TypePunchRecorded,
		WorkspaceID:   "ws-1",
		AggregateType: AggregateTimeRecord,
		AggregateID:   "rec-1",
		OccurredAt:    time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC),
		Payload:       map[string]any{"type": "entry"},
	}
	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "geopoint.attendance.v1", msg.Topic)
	assert.Equal(t, []byte("rec-1"), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, TypePunchRecorded, headers["event_type"])
	assert.Equal(t, AggregateTimeRecord, headers["aggregate_type"])
	assert.Equal(t, "ws-1", headers["workspace_id"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "punch.recorded", decoded["event_type"])
	assert.Equal(t, "entry", decoded["payload"].(map[string]any)["type"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisherWithWriter(w, "t")

	err := p.Publish(context.Background(), Event{Type: TypeRequestCreated, AggregateID: "r"})
	assert.ErrorContains(t, err, "broker down")
}

func TestLogPublisher(t *testing.T) {
	var p Publisher = LogPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeRequestDecided}))
	assert.NoError(t, p.Close())
}

func TestNewKafkaPublisher_ShortBatchTimeout(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "geopoint.attendance.v1")
	defer p.Close()

	w, ok := p.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.IsType(t, &kafkago.Hash{}, w.Balancer)
}
