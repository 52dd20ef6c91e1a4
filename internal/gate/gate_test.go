package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/triaged/internal/documents"
	"github.com/fyrsmithlabs/triaged/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore simulates an unreachable document store.
type failingStore struct{}

func (failingStore) ListByUser(ctx context.Context, userID string) ([]documents.Record, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Upsert(ctx context.Context, rec documents.Record) error { return nil }
func (failingStore) Delete(ctx context.Context, id string) error            { return nil }
func (failingStore) Close() error                                           { return nil }

func seedStore(t *testing.T, recs ...documents.Record) documents.Store {
	t.Helper()
	store := documents.NewMemoryStore()
	for _, rec := range recs {
		require.NoError(t, store.Upsert(context.Background(), rec))
	}
	return store
}

func TestRequiredTypes(t *testing.T) {
	tests := []struct {
		name  string
		kinds []workflow.Kind
		want  []documents.Type
	}{
		{
			name:  "retrieval only",
			kinds: []workflow.Kind{workflow.KindInformationRetrieval},
			want:  []documents.Type{documents.TypeBenefitsSummary, documents.TypeInsuranceCard},
		},
		{
			name:  "union deduplicates shared types",
			kinds: []workflow.Kind{workflow.KindStrategy, workflow.KindInformationRetrieval},
			want: []documents.Type{
				documents.TypeBenefitsSummary,
				documents.TypeInsuranceCard,
				documents.TypeProviderDirectory,
			},
		},
		{
			name:  "empty prescription needs nothing",
			kinds: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredTypes(tt.kinds))
		})
	}
}

func TestCheckAllAvailable(t *testing.T) {
	store := seedStore(t,
		documents.Record{ID: "1", UserID: "u", Type: documents.TypeBenefitsSummary, Status: documents.StatusReady},
		documents.Record{ID: "2", UserID: "u", Type: documents.TypeInsuranceCard, Status: documents.StatusProcessed},
	)
	g := New(store, nil)

	av := g.Check(context.Background(), []workflow.Kind{workflow.KindInformationRetrieval}, "u")

	assert.True(t, av.Ready)
	assert.Empty(t, av.Missing)
	assert.Len(t, av.Available, 2)
	for _, dt := range av.Available {
		assert.True(t, av.Status[dt], "status[%s] should be true", dt)
	}
}

func TestCheckPartialAvailability(t *testing.T) {
	store := seedStore(t,
		documents.Record{ID: "1", UserID: "u", Type: documents.TypeBenefitsSummary, Status: documents.StatusReady},
	)
	g := New(store, nil)

	av := g.Check(context.Background(), []workflow.Kind{workflow.KindInformationRetrieval}, "u")

	assert.False(t, av.Ready)
	assert.Equal(t, []documents.Type{documents.TypeBenefitsSummary}, av.Available)
	assert.Equal(t, []documents.Type{documents.TypeInsuranceCard}, av.Missing)
	assert.True(t, av.Status[documents.TypeBenefitsSummary])
	assert.False(t, av.Status[documents.TypeInsuranceCard])
}

func TestCheckIgnoresUnusableStatuses(t *testing.T) {
	store := seedStore(t,
		documents.Record{ID: "1", UserID: "u", Type: documents.TypeBenefitsSummary, Status: documents.StatusPending},
		documents.Record{ID: "2", UserID: "u", Type: documents.TypeInsuranceCard, Status: documents.StatusFailed},
	)
	g := New(store, nil)

	av := g.Check(context.Background(), []workflow.Kind{workflow.KindInformationRetrieval}, "u")

	assert.False(t, av.Ready)
	assert.Empty(t, av.Available)
	assert.Len(t, av.Missing, 2)
}

func TestCheckIgnoresOtherUsersDocuments(t *testing.T) {
	store := seedStore(t,
		documents.Record{ID: "1", UserID: "someone-else", Type: documents.TypeBenefitsSummary, Status: documents.StatusReady},
		documents.Record{ID: "2", UserID: "someone-else", Type: documents.TypeInsuranceCard, Status: documents.StatusReady},
	)
	g := New(store, nil)

	av := g.Check(context.Background(), []workflow.Kind{workflow.KindInformationRetrieval}, "u")
	assert.False(t, av.Ready)
	assert.Empty(t, av.Available)
}

func TestCheckStoreFailureDegradesToNotReady(t *testing.T) {
	g := New(failingStore{}, nil)

	av := g.Check(context.Background(), []workflow.Kind{workflow.KindStrategy}, "u")

	assert.False(t, av.Ready, "store failure must never report ready")
	assert.Empty(t, av.Available, "store failure must not report anything available")
	assert.Len(t, av.Missing, len(RequiredTypes([]workflow.Kind{workflow.KindStrategy})))
}

func TestCheckEmptyPrescription(t *testing.T) {
	g := New(failingStore{}, nil)

	// Empty prescription must not touch the store at all.
	av := g.Check(context.Background(), nil, "u")
	assert.True(t, av.Ready, "nothing required means ready by definition")
	assert.Empty(t, av.Missing)
}

func TestAvailabilityConsistency(t *testing.T) {
	store := seedStore(t,
		documents.Record{ID: "1", UserID: "u", Type: documents.TypeBenefitsSummary, Status: documents.StatusReady},
	)
	g := New(store, nil)

	av := g.Check(context.Background(), []workflow.Kind{workflow.KindInformationRetrieval, workflow.KindStrategy}, "u")

	// is_ready == (missing is empty)
	assert.Equal(t, len(av.Missing) == 0, av.Ready)
	// status[r] == (r in available) for every required type
	availableSet := make(map[documents.Type]bool)
	for _, dt := range av.Available {
		availableSet[dt] = true
	}
	for dt, ok := range av.Status {
		assert.Equal(t, availableSet[dt], ok, "status[%s] inconsistent", dt)
	}
}
