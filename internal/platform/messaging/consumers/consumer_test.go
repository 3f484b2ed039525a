package consumers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/property-report-ledger/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader replays a fixed set of messages, then blocks until the context ends
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	fetchErrs []error
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.committed))
	for _, m := range r.committed {
		keys = append(keys, string(m.Key))
	}
	return keys
}

var _ KafkaReader = (*fakeReader)(nil)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:  "localhost:9092",
		MinBytes: 1,
		MaxBytes: 10240,
		MaxWait:  time.Second,
	}

	consumer := NewKafkaConsumer(newTestLogger(), cfg, "report_notifications", "report-notification-group")
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader, "Kafka reader should be initialized")
	assert.Equal(t, "report_notifications", consumer.topic)
	assert.Equal(t, "report-notification-group", consumer.groupID)
	assert.NoError(t, consumer.Close())
}

func TestKafkaConsumer_Subscribe(t *testing.T) {
	t.Run("FailedMessageIsSkippedNotRetried", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{
			{Key: []byte("ok-1"), Value: []byte("a"), Offset: 10},
			{Key: []byte("bad"), Value: []byte("b"), Offset: 11},
			{Key: []byte("ok-2"), Value: []byte("c"), Offset: 12},
		}}
		consumer := newKafkaConsumer(newTestLogger(), reader, "topic", "group")

		var mu sync.Mutex
		var seen []string
		handled := make(chan struct{}, 3)
		handler := func(ctx context.Context, key, value []byte) error {
			mu.Lock()
			seen = append(seen, string(key))
			mu.Unlock()
			handled <- struct{}{}
			if string(key) == "bad" {
				return errors.New("transient failure")
			}
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, consumer.Subscribe(ctx, handler))

		for i := 0; i < 3; i++ {
			select {
			case <-handled:
			case <-time.After(2 * time.Second):
				t.Fatal("handler was not called")
			}
		}
		cancel()

		select {
		case <-consumer.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("consumer did not stop after cancel")
		}

		mu.Lock()
		assert.Equal(t, []string{"ok-1", "bad", "ok-2"}, seen)
		mu.Unlock()
		assert.Equal(t, []string{"ok-1", "ok-2"}, reader.committedKeys())

		// The commit of offset 12 moves the group past the failed offset 11
		reader.mu.Lock()
		last := reader.committed[len(reader.committed)-1]
		reader.mu.Unlock()
		assert.Greater(t, last.Offset, int64(11))
	})

	t.Run("RetriesAfterFetchError", func(t *testing.T) {
		reader := &fakeReader{
			fetchErrs: []error{errors.New("broker unavailable")},
			messages:  []kafka.Message{{Key: []byte("after-retry")}},
		}
		consumer := newKafkaConsumer(newTestLogger(), reader, "topic", "group")
		consumer.retryDelay = 10 * time.Millisecond

		handled := make(chan string, 1)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		require.NoError(t, consumer.Subscribe(ctx, func(ctx context.Context, key, value []byte) error {
			handled <- string(key)
			return nil
		}))

		select {
		case key := <-handled:
			assert.Equal(t, "after-retry", key)
		case <-time.After(2 * time.Second):
			t.Fatal("message after fetch error was not handled")
		}
	})

	t.Run("NilHandler", func(t *testing.T) {
		consumer := newKafkaConsumer(newTestLogger(), &fakeReader{}, "topic", "group")
		assert.Error(t, consumer.Subscribe(context.Background(), nil))
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{reader: nil, logger: newTestLogger()}
		require.NoError(t, consumer.Close(), "Close should return nil if reader is nil")
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := newKafkaConsumer(newTestLogger(), reader, "topic", "group")
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}
