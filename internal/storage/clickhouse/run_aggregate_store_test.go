package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing-lab/internal/domain"
	"pricing-lab/internal/storage"
)

func testRunAggregate(runID, policyHash string, createdAt int64) *domain.RunAggregate {
	return &domain.RunAggregate{
		RunID:           runID,
		PolicyHash:      policyHash,
		Seed:            42,
		Trials:          2000,
		AvgRevenue:      198000.5,
		StdRevenue:      12000.25,
		FillRate:        0.93,
		AvgPrice:        38500,
		LastMinuteShare: 0.12,
		Regret:          ptr(3500.5),
		SalesLow:        4000,
		SalesMed:        6000,
		SalesHigh:       3000,
		CreatedAt:       createdAt,
	}
}

func TestRunAggregateStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunAggregateStore(conn)
	ctx := context.Background()

	agg := testRunAggregate("run-1", "hash-1", 1704067234567)
	require.NoError(t, store.Insert(ctx, agg))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, agg, got)
}

func TestRunAggregateStore_NilRegret(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunAggregateStore(conn)
	ctx := context.Background()

	agg := testRunAggregate("run-1", "hash-1", 1000)
	agg.Regret = nil
	require.NoError(t, store.Insert(ctx, agg))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Nil(t, got.Regret)
}

func TestRunAggregateStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunAggregateStore(conn)
	ctx := context.Background()

	agg := testRunAggregate("run-1", "hash-1", 1000)
	require.NoError(t, store.Insert(ctx, agg))

	err := store.Insert(ctx, agg)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunAggregateStore_NotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunAggregateStore(conn)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunAggregateStore_InsertBulkAndQuery(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunAggregateStore(conn)
	ctx := context.Background()

	aggs := []*domain.RunAggregate{
		testRunAggregate("run-1", "hash-1", 1000),
		testRunAggregate("run-2", "hash-1", 2000),
		testRunAggregate("run-3", "hash-2", 3000),
	}
	require.NoError(t, store.InsertBulk(ctx, aggs))

	byHash, err := store.GetByPolicyHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Len(t, byHash, 2)
	assert.Equal(t, "run-1", byHash[0].RunID)
	assert.Equal(t, "run-2", byHash[1].RunID)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRunAggregateStore_InsertBulkIntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunAggregateStore(conn)
	ctx := context.Background()

	aggs := []*domain.RunAggregate{
		testRunAggregate("run-1", "hash-1", 1000),
		testRunAggregate("run-1", "hash-1", 2000),
	}

	err := store.InsertBulk(ctx, aggs)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
