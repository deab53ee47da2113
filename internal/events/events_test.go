package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
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

type recorder struct {
	events []model.StockEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, event model.StockEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func sampleEvent() model.StockEvent {
	p := &model.Product{SKU: "K-1", Name: "Kettle", Quantity: 2, MinStock: 5}
	p.ID = uuid.New()
	return model.NewStockEvent(model.ActionLowStock, p, "tester", "low")
}

func TestKafkaPublisher(t *testing.T) {
	t.Run("KeysByProduct", func(t *testing.T) {
		w := &fakeWriter{}
		p := newKafkaPublisher(w, "inventory-events", zap.NewNop())
		event := sampleEvent()

		require.NoError(t, p.Publish(context.Background(), event))
		require.Len(t, w.messages, 1)
		msg := w.messages[0]
		require.Equal(t, event.Product.ID.String(), string(msg.Key))
		require.Equal(t, "action", msg.Headers[0].Key)
		require.Equal(t, model.ActionLowStock, string(msg.Headers[0].Value))

		var decoded model.StockEvent
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		require.Equal(t, "K-1", decoded.Product.SKU)

		require.NoError(t, p.Close())
		require.True(t, w.closed)
	})

	t.Run("ReturnsWriteError", func(t *testing.T) {
		boom := errors.New("broker down")
		p := newKafkaPublisher(&fakeWriter{err: boom}, "inventory-events", zap.NewNop())
		require.ErrorIs(t, p.Publish(context.Background(), sampleEvent()), boom)
	})

	t.Run("SplitsBrokers", func(t *testing.T) {
		require.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092, ,b:9092 "))
	})
}

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	first := &recorder{err: boom}
	second := &recorder{}
	m := Multi{first, nil, second}

	err := m.Publish(context.Background(), sampleEvent())
	require.ErrorIs(t, err, boom)
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)

	require.NoError(t, Multi{second}.Publish(context.Background(), sampleEvent()))
}
