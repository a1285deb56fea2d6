package projection

import (
	"context"
	"testing"
	"time"

	v1 "github.com/stratahq/strata/internal/api/v1"
	"github.com/stratahq/strata/internal/core/storage"
	"github.com/stratahq/strata/internal/core/storage/memory"
	"github.com/stratahq/strata/internal/core/stream"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, store storage.DocumentStore) *Service {
	t.Helper()

	rules, err := NewRuleSet([]Rule{
		{EventType: "app.created", Kind: "app", Action: ActionCreate, Fields: []string{"name"}},
		{EventType: "app.master_language_set", Kind: "app", Action: ActionUpdate, Fields: []string{"language"}},
		{EventType: "app.deleted", Kind: "app", Action: ActionDelete},
	})
	require.NoError(t, err)

	resolver, err := stream.NewResolver("")
	require.NoError(t, err)

	svc := NewService(NewWriter(store), rules, resolver)
	svc.newID = func() string { return "generated-id" }
	return svc
}

func appEvent(eventType string, ts time.Time, version int64, data map[string]interface{}) *v1.Event {
	return &v1.Event{
		ID:   "evt-" + eventType,
		Type: eventType,
		Header: v1.EnvelopeHeader{
			EntityKind: "app",
			EntityID:   "3f2a",
			ScopeID:    "scope-1",
			Timestamp:  ts,
			Version:    version,
		},
		Data: data,
	}
}

func TestService_ApplyLifecycle(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := newTestService(t, store)
	ctx := context.Background()
	t0 := time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)

	res, err := svc.Apply(ctx, appEvent("app.created", t0, 0, map[string]interface{}{"name": "blog", "ignored": true}))
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, res.Outcome)
	require.Equal(t, "app-3f2a", res.Stream)
	require.Equal(t, "created", res.Status)

	res, err = svc.Apply(ctx, appEvent("app.master_language_set", t0.Add(time.Minute), 1, map[string]interface{}{"language": "de"}))
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, res.Outcome)

	res, err = svc.Apply(ctx, appEvent("app.deleted", t0.Add(2*time.Minute), 2, nil))
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, res.Outcome)

	doc, err := store.FindByID(ctx, "app", "3f2a")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, map[string]interface{}{"name": "blog", "language": "de"}, doc.Data)
	require.True(t, doc.Deleted)
	require.Equal(t, int64(2), doc.Version)
	require.Equal(t, "scope-1", doc.ScopeID)
	require.Equal(t, t0, doc.CreatedAt)
	require.Equal(t, t0.Add(2*time.Minute), doc.LastModifiedAt)
}

func TestService_ApplyRedelivery(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := newTestService(t, store)
	t0 := time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)

	evt := appEvent("app.created", t0, 0, map[string]interface{}{"name": "blog"})
	_, err := svc.Apply(context.Background(), evt)
	require.NoError(t, err)

	res, err := svc.Apply(context.Background(), evt)
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyExists, res.Outcome)
	require.Equal(t, 1, store.Len())
}

func TestService_ApplyUpdateBeforeCreate(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := newTestService(t, store)

	res, err := svc.Apply(context.Background(), appEvent("app.master_language_set", time.Now().UTC(), 1, map[string]interface{}{"language": "de"}))
	require.NoError(t, err)
	require.Equal(t, OutcomeMissing, res.Outcome)
	require.Zero(t, store.Len())
}

func TestService_ApplyAssignsEventID(t *testing.T) {
	svc := newTestService(t, memory.NewDocumentStore())

	evt := appEvent("app.created", time.Now().UTC(), 0, nil)
	evt.ID = ""

	res, err := svc.Apply(context.Background(), evt)
	require.NoError(t, err)
	require.Equal(t, "generated-id", res.EventID)
	require.Equal(t, "generated-id", evt.ID)
}

func TestService_ApplyErrors(t *testing.T) {
	svc := newTestService(t, memory.NewDocumentStore())
	now := time.Now().UTC()

	tests := []struct {
		name    string
		evt     *v1.Event
		wantErr error
	}{
		{
			name:    "unknown event type",
			evt:     appEvent("app.renamed", now, 0, nil),
			wantErr: ErrUnknownEventType,
		},
		{
			name: "invalid envelope",
			evt: func() *v1.Event {
				e := appEvent("app.created", now, 0, nil)
				e.Header.Timestamp = time.Time{}
				return e
			}(),
			wantErr: storage.ErrInvalidArgument,
		},
		{
			name: "kind does not match rule",
			evt: func() *v1.Event {
				e := appEvent("app.created", now, 0, nil)
				e.Header.EntityKind = "schema"
				return e
			}(),
			wantErr: storage.ErrInvalidArgument,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Apply(context.Background(), tc.evt)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestService_ApplyKindCaseInsensitiveFirstLetter(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := newTestService(t, store)

	evt := appEvent("app.created", time.Now().UTC(), 0, map[string]interface{}{"name": "blog"})
	evt.Header.EntityKind = "App"

	res, err := svc.Apply(context.Background(), evt)
	require.NoError(t, err)
	require.Equal(t, "app-3f2a", res.Stream)
	require.Equal(t, "app", res.Kind)
}
