package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellbooks/inkwell-backend/pkg/config"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
)

type fakeOutboxRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (r *fakeOutboxRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	if len(r.events) > limit {
		return r.events[:limit], nil
	}
	return r.events, nil
}

func (r *fakeOutboxRepo) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(id uuid.UUID, err error) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakeResult struct {
	err error
}

func (f fakeResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	return fakeResult{err: p.err}
}

func testPublisherService(t *testing.T, repo *fakeOutboxRepo, pub *fakePublisher) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{Outbox: config.OutboxConfig{BatchSize: 10, MaxAttempts: 5}},
		Logger:     logg,
		Repository: repo,
		Publisher:  pub,
	})
	require.NoError(t, err)
	return svc
}

func outboxEvent(eventType enums.OutboxEventType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1,"data":{}}`),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	t.Parallel()

	first := outboxEvent(enums.EventOrderCreated)
	second := outboxEvent(enums.EventPaymentCompleted)
	repo := &fakeOutboxRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{}
	svc := testPublisherService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())

	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, repo.published)
	assert.Empty(t, repo.failed)
	require.Len(t, pub.messages, 2)
	assert.Equal(t, string(enums.EventOrderCreated), pub.messages[0].Attributes["event_type"])
	assert.Equal(t, first.AggregateID.String(), pub.messages[0].Attributes["aggregate_id"])
}

func TestProcessBatchMarksFailureAndContinues(t *testing.T) {
	t.Parallel()

	event := outboxEvent(enums.EventOrderCreated)
	repo := &fakeOutboxRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{err: errors.New("topic unavailable")}
	svc := testPublisherService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())

	require.NoError(t, err, "publish failures are recorded, not propagated")
	assert.True(t, processed)
	assert.Empty(t, repo.published)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.failed)
}

func TestProcessBatchEmptyIsIdle(t *testing.T) {
	t.Parallel()

	repo := &fakeOutboxRepo{}
	svc := testPublisherService(t, repo, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())

	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessBatchFetchErrorPropagates(t *testing.T) {
	t.Parallel()

	repo := &fakeOutboxRepo{fetchErr: errors.New("db gone")}
	svc := testPublisherService(t, repo, &fakePublisher{})

	_, err := svc.processBatch(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch unpublished")
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	repo := &fakeOutboxRepo{}
	svc := testPublisherService(t, repo, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
