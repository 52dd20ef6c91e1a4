package documents

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest runs the shared Store contract tests against both
// implementations.
func storeUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreUpsertAndList(t *testing.T) {
	for name, store := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Upsert(ctx, Record{
				ID:     "d1",
				UserID: "user-1",
				Type:   TypeBenefitsSummary,
				Status: StatusReady,
				Name:   "benefits.pdf",
			}))
			require.NoError(t, store.Upsert(ctx, Record{
				ID:     "d2",
				UserID: "user-1",
				Type:   TypeInsuranceCard,
				Status: StatusPending,
			}))
			require.NoError(t, store.Upsert(ctx, Record{
				ID:     "d3",
				UserID: "user-2",
				Type:   TypeBenefitsSummary,
				Status: StatusReady,
			}))

			recs, err := store.ListByUser(ctx, "user-1")
			require.NoError(t, err)
			assert.Len(t, recs, 2)
			for _, rec := range recs {
				assert.Equal(t, "user-1", rec.UserID)
				assert.False(t, rec.UpdatedAt.IsZero())
			}

			recs, err = store.ListByUser(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestStoreUpsertReplacesSameType(t *testing.T) {
	for name, store := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Upsert(ctx, Record{
				ID: "d1", UserID: "u", Type: TypeBenefitsSummary, Status: StatusPending,
			}))
			require.NoError(t, store.Upsert(ctx, Record{
				ID: "d2", UserID: "u", Type: TypeBenefitsSummary, Status: StatusReady,
			}))

			recs, err := store.ListByUser(ctx, "u")
			require.NoError(t, err)
			require.Len(t, recs, 1, "second upsert for the same type must replace")
			assert.Equal(t, StatusReady, recs[0].Status)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Upsert(ctx, Record{
				ID: "d1", UserID: "u", Type: TypeClaimsHistory, Status: StatusReady,
			}))
			require.NoError(t, store.Delete(ctx, "d1"))

			recs, err := store.ListByUser(ctx, "u")
			require.NoError(t, err)
			assert.Empty(t, recs)

			err = store.Delete(ctx, "d1")
			assert.True(t, errors.Is(err, ErrNotFound), "deleting twice should return ErrNotFound, got %v", err)
		})
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), Record{
		ID:        "d1",
		UserID:    "u",
		Type:      TypeProviderDirectory,
		Status:    StatusProcessed,
		UpdatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	recs, err := reopened.ListByUser(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, TypeProviderDirectory, recs[0].Type)
	assert.Equal(t, StatusProcessed, recs[0].Status)
}

func TestRecordUsable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusReady, true},
		{StatusProcessed, true},
		{StatusPending, false},
		{StatusUploaded, false},
		{StatusFailed, false},
		{Status("weird"), false},
	}
	for _, tt := range tests {
		rec := Record{Status: tt.status}
		if rec.Usable() != tt.want {
			t.Errorf("Usable() for %q = %v, want %v", tt.status, rec.Usable(), tt.want)
		}
	}
}
