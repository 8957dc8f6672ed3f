package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"kycflow/pkg/requestcontext"
)

func TestPublisherStampsFromContext(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	ctx = requestcontext.WithSessionID(ctx, "sess-1")

	store := NewInMemoryStore()
	require.NoError(t, NewPublisher(store).Emit(ctx, Event{Action: ActionStepVerified, Step: "kyc.pan"}))

	events, err := store.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, now, events[0].Timestamp)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, "kyc.pan", events[0].Step)
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, Event) error { return errors.New("sink down") }

func TestLogSwallowsEmitFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	assert.NotPanics(t, func() {
		Log(context.Background(), logger, failingEmitter{}, Event{Action: ActionStepRejected, SessionID: "s"})
	})
	assert.Contains(t, buf.String(), `"log_type":"audit"`)
	assert.Contains(t, buf.String(), "failed to emit audit event")

	Log(context.Background(), nil, nil, Event{Action: ActionSessionOpened})
}

func TestAsyncPublisherAndWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewAsyncPublisher(4, nil)
	store := NewInMemoryStore()
	done := make(chan error, 1)
	go func() { done <- NewWorker(store, pub.Inbox(), nil).Run(ctx) }()

	require.NoError(t, pub.Emit(ctx, Event{Action: ActionSessionOpened, SessionID: "s1"}))
	require.NoError(t, pub.Emit(ctx, Event{Action: ActionStepVerified, SessionID: "s1"}))

	assert.Eventually(t, func() bool {
		events, _ := store.ListBySession(ctx, "s1")
		return len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestAsyncPublisherDropsWhenFull(t *testing.T) {
	pub := NewAsyncPublisher(1, nil)
	require.NoError(t, pub.Emit(context.Background(), Event{Action: ActionSessionOpened}))
	require.NoError(t, pub.Emit(context.Background(), Event{Action: ActionStepVerified}))
	assert.Len(t, pub.Inbox(), 1)
}

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestKafkaStoreAppend(t *testing.T) {
	producer := &fakeProducer{}
	store := NewKafkaStore(producer, "kycflow.audit")

	event := Event{Action: ActionIdentityPromoted, SessionID: "sess-9", UserID: 7, UserType: "PARTNER"}
	require.NoError(t, store.Append(context.Background(), event))

	require.Len(t, producer.records, 1)
	record := producer.records[0]
	assert.Equal(t, "kycflow.audit", record.Topic)
	assert.Equal(t, "sess-9", string(record.Key))

	var decoded Event
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, ActionIdentityPromoted, decoded.Action)
	assert.Equal(t, int64(7), decoded.UserID)
}

func TestKafkaStoreProduceError(t *testing.T) {
	store := NewKafkaStore(&fakeProducer{err: errors.New("broker down")}, "kycflow.audit")
	err := store.Append(context.Background(), Event{Action: ActionStepVerified})
	assert.ErrorContains(t, err, "broker down")
}
