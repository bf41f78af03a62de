package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = "chuc_vu"

func request(mode models.UpsertMode) ReconcileRequest {
	return ReconcileRequest{
		Table:        testTable,
		KeyField:     "ma",
		CreatorField: "nguoi_tao_id",
		ActorID:      "user-7",
		Options:      models.ImportOptions{SkipEmptyCells: true, UpsertMode: mode},
	}
}

func assertAccounted(t *testing.T, res models.ImportResult, total int) {
	t.Helper()
	assert.Equal(t, total, res.Inserted+res.Updated+res.FailedRows())
}

func TestReconcileInsertsNewRecords(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store)

	res := rec.Reconcile(context.Background(), makeRecords(3), request(models.UpsertModeUpsert))

	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 3, store.count(testTable))
}

func TestReconcileInjectsCreatorOnInsertOnly(t *testing.T) {
	store := newMemStore()
	existingID := store.seed(testTable, map[string]interface{}{"ma": "K001", "ten": "Old"})
	rec := NewReconciler(store)

	res := rec.Reconcile(context.Background(), makeRecords(2), request(models.UpsertModeUpsert))
	require.Equal(t, 1, res.Inserted)
	require.Equal(t, 1, res.Updated)

	updated := store.find(testTable, "id", existingID)
	assert.Equal(t, "Name 1", updated["ten"])
	assert.NotContains(t, updated, "nguoi_tao_id")

	inserted := store.find(testTable, "ma", "K002")
	require.NotNil(t, inserted)
	assert.Equal(t, "user-7", inserted["nguoi_tao_id"])
}

func TestReconcileUpsertIsIdempotent(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store, WithChunkSize(10))
	records := makeRecords(25)

	first := rec.Reconcile(context.Background(), records, request(models.UpsertModeUpsert))
	second := rec.Reconcile(context.Background(), records, request(models.UpsertModeUpsert))

	assert.Equal(t, 25, first.Inserted)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, first.Inserted, second.Updated)
	assert.Empty(t, second.Errors)
	assert.Equal(t, 25, store.count(testTable))
}

func TestReconcileMatchesKeysCaseInsensitively(t *testing.T) {
	store := newMemStore()
	store.seed(testTable, map[string]interface{}{"ma": "k001"})
	rec := NewReconciler(store)

	res := rec.Reconcile(context.Background(), makeRecords(1), request(models.UpsertModeUpsert))

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, store.count(testTable))
}

func TestReconcileInsertOnlyRejectsExisting(t *testing.T) {
	store := newMemStore()
	store.seed(testTable, map[string]interface{}{"ma": "DUP"})
	records := []models.TransformedRecord{
		{RowNumber: 1, Fields: map[string]models.Value{"ma": models.TextValue("DUP")}},
		{RowNumber: 2, Fields: map[string]models.Value{"ma": models.TextValue("dup ")}},
	}

	res := NewReconciler(store).Reconcile(context.Background(), records, request(models.UpsertModeInsert))

	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, []models.RowError{
		{Row: 1, Error: "already exists"},
		{Row: 2, Error: "already exists"},
	}, res.Errors)
}

func TestReconcileUpdateOnlyRejectsMissing(t *testing.T) {
	store := newMemStore()
	store.seed(testTable, map[string]interface{}{"ma": "K002"})

	res := NewReconciler(store).Reconcile(context.Background(), makeRecords(3), request(models.UpsertModeUpdate))

	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []models.RowError{{Row: 1, Error: "not found"}, {Row: 3, Error: "not found"}}, res.Errors)
	assert.Equal(t, 1, store.count(testTable))
}

func TestReconcileInsertFailureLeavesUpdatesIntact(t *testing.T) {
	store := newMemStore()
	store.seed(testTable, map[string]interface{}{"ma": "K001"})
	store.seed(testTable, map[string]interface{}{"ma": "K003"})
	store.failInsert = errors.New("unique violation")

	res := NewReconciler(store).Reconcile(context.Background(), makeRecords(4), request(models.UpsertModeUpsert))

	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, []models.RowError{
		{Row: 2, Error: "unique violation"},
		{Row: 4, Error: "unique violation"},
	}, res.Errors)
	assertAccounted(t, res, 4)
}

func TestReconcileUpdateFailureIsPerRow(t *testing.T) {
	store := newMemStore()
	badID := store.seed(testTable, map[string]interface{}{"ma": "K001"})
	store.seed(testTable, map[string]interface{}{"ma": "K002"})
	store.failUpdate = map[string]error{badID: errors.New("row locked")}

	res := NewReconciler(store).Reconcile(context.Background(), makeRecords(3), request(models.UpsertModeUpsert))

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []models.RowError{{Row: 1, Error: "row locked"}}, res.Errors)
}

func TestReconcileIssuesOneLookupAndInsertPerChunk(t *testing.T) {
	store := newMemStore()

	res := NewReconciler(store, WithChunkSize(100)).Reconcile(context.Background(), makeRecords(250), request(models.UpsertModeUpsert))

	assert.Equal(t, 250, res.Inserted)
	assert.Equal(t, 3, store.lookups)
	assert.Equal(t, 3, store.inserts)
	assert.Equal(t, 0, store.updates)
}

func TestReconcileSecondChunkFailure(t *testing.T) {
	store := newMemStore()
	store.failChunk = 1

	var progress []models.ChunkProgress
	req := request(models.UpsertModeUpsert)
	req.OnChunk = func(p models.ChunkProgress) { progress = append(progress, p) }

	res := NewReconciler(store, WithChunkSize(100)).Reconcile(context.Background(), makeRecords(150), req)

	assert.Equal(t, 100, res.Inserted+res.Updated)
	require.Len(t, res.Errors, 50)
	for i, e := range res.Errors {
		assert.Equal(t, 101+i, e.Row)
		assert.Equal(t, errBackend.Error(), e.Error)
	}
	assert.Equal(t, []models.ChunkProgress{
		{Chunk: 1, Chunks: 2, Processed: 100, Total: 150},
		{Chunk: 2, Chunks: 2, Processed: 150, Total: 150},
	}, progress)
}

func TestReconcileStopsAtChunkBoundaryOnCancel(t *testing.T) {
	store := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := request(models.UpsertModeUpsert)
	req.OnChunk = func(p models.ChunkProgress) {
		if p.Chunk == 1 {
			cancel()
		}
	}

	res := NewReconciler(store, WithChunkSize(10)).Reconcile(ctx, makeRecords(35), req)

	assert.True(t, res.Cancelled)
	assert.Equal(t, 10, res.Inserted)
	assert.Equal(t, 10, store.count(testTable))
	require.Len(t, res.Errors, 25)
	assert.Equal(t, 11, res.Errors[0].Row)
	assert.Equal(t, "import cancelled before this row was processed", res.Errors[0].Error)
	assertAccounted(t, res, 35)
}

func TestReconcileAmbiguousAndEmptyKeys(t *testing.T) {
	store := newMemStore()
	store.seed(testTable, map[string]interface{}{"ma": "K001"})
	store.seed(testTable, map[string]interface{}{"ma": "k001"})
	records := []models.TransformedRecord{
		{RowNumber: 1, Fields: map[string]models.Value{"ma": models.TextValue("K001")}},
		{RowNumber: 2, Fields: map[string]models.Value{"ten": models.TextValue("no key")}},
	}

	res := NewReconciler(store).Reconcile(context.Background(), records, request(models.UpsertModeUpsert))

	assert.Equal(t, []models.RowError{
		{Row: 1, Error: "matches 2 existing records"},
		{Row: 2, Error: "ma is empty, cannot match existing records"},
	}, res.Errors)
	assert.Equal(t, 0, store.inserts)
}

func TestWithChunkSizeClamps(t *testing.T) {
	assert.Equal(t, 1, NewReconciler(newMemStore(), WithChunkSize(0)).ChunkSize())
	assert.Equal(t, MaxChunkSize, NewReconciler(newMemStore(), WithChunkSize(5000)).ChunkSize())
	assert.Equal(t, DefaultChunkSize, NewReconciler(newMemStore()).ChunkSize())
}
