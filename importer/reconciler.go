package importer

import (
	"context"
	"fmt"
	"sort"

	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/admin5fedu/duraval-app-sub010/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize         = 100
	MaxChunkSize             = 1000
	DefaultUpdateConcurrency = 4
)

const (
	msgAlreadyExists = "already exists"
	msgNotFound      = "not found"
	msgCancelled     = "import cancelled before this row was processed"
)

// ReconcileRequest carries everything one reconciliation run needs besides the records.
type ReconcileRequest struct {
	Table    string
	KeyField string
	// KeyFn defaults to FieldKey(KeyField).
	KeyFn KeyFunc
	// CreatorField receives ActorID on inserted records. Empty disables injection.
	CreatorField string
	ActorID      string
	Options      models.ImportOptions
	OnChunk      func(models.ChunkProgress)
}

// Reconciler matches records against a RecordStore by natural key and writes
// them chunk by chunk.
type Reconciler struct {
	store             repository.RecordStore
	chunkSize         int
	updateConcurrency int
	logger            *zap.Logger
}

type Option func(*Reconciler)

// WithChunkSize sets rows per chunk, clamped to [1, MaxChunkSize].
func WithChunkSize(n int) Option {
	return func(r *Reconciler) {
		switch {
		case n < 1:
			n = 1
		case n > MaxChunkSize:
			n = MaxChunkSize
		}
		r.chunkSize = n
	}
}

// WithUpdateConcurrency bounds in-flight update calls within one chunk.
func WithUpdateConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n < 1 {
			n = 1
		}
		r.updateConcurrency = n
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewReconciler(store repository.RecordStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:             store,
		chunkSize:         DefaultChunkSize,
		updateConcurrency: DefaultUpdateConcurrency,
		logger:            zap.L(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Reconciler) ChunkSize() int { return r.chunkSize }

// Reconcile processes records in sequential chunks and always accounts for
// every record: each ends up inserted, updated or in Errors. ctx is checked
// only between chunks; a started chunk runs to completion.
func (r *Reconciler) Reconcile(ctx context.Context, records []models.TransformedRecord, req ReconcileRequest) models.ImportResult {
	keyFn := req.KeyFn
	if keyFn == nil {
		keyFn = FieldKey(req.KeyField)
	}

	total := len(records)
	chunks := (total + r.chunkSize - 1) / r.chunkSize
	results := make([]models.ImportResult, 0, chunks)

	for c := 0; c < chunks; c++ {
		start := c * r.chunkSize
		end := start + r.chunkSize
		if end > total {
			end = total
		}

		if err := ctx.Err(); err != nil {
			r.logger.Warn("import cancelled between chunks",
				zap.String("table", req.Table),
				zap.Int("chunk", c+1),
				zap.Int("remaining_rows", total-start),
				zap.Error(err),
			)
			results = append(results, cancelled(records[start:]))
			break
		}

		res := r.reconcileChunk(context.WithoutCancel(ctx), records[start:end], keyFn, req)
		results = append(results, res)

		r.logger.Debug("chunk reconciled",
			zap.String("table", req.Table),
			zap.Int("chunk", c+1),
			zap.Int("chunks", chunks),
			zap.Int("rows", end-start),
			zap.Int("inserted", res.Inserted),
			zap.Int("updated", res.Updated),
			zap.Int("errors", len(res.Errors)),
		)
		if req.OnChunk != nil {
			req.OnChunk(models.ChunkProgress{Chunk: c + 1, Chunks: chunks, Processed: end, Total: total})
		}
	}

	return Aggregate(results...)
}

type disposition int

const (
	dispError disposition = iota
	dispInsert
	dispUpdate
)

type rowOutcome struct {
	disp disposition
	id   string
	err  string
}

func (r *Reconciler) reconcileChunk(ctx context.Context, chunk []models.TransformedRecord, keyFn KeyFunc, req ReconcileRequest) models.ImportResult {
	outcomes := make([]rowOutcome, len(chunk))
	keys := make([]string, len(chunk))
	wanted := make(map[string]struct{}, len(chunk))

	for i, rec := range chunk {
		keys[i] = models.NormalizeKey(keyFn(rec))
		if keys[i] == "" {
			outcomes[i].err = fmt.Sprintf("%s is empty, cannot match existing records", req.KeyField)
			continue
		}
		wanted[keys[i]] = struct{}{}
	}
	if len(wanted) == 0 {
		return collect(chunk, outcomes)
	}

	distinct := make([]string, 0, len(wanted))
	for k := range wanted {
		distinct = append(distinct, k)
	}
	sort.Strings(distinct)

	existing, err := r.store.LookupByKeys(ctx, req.Table, req.KeyField, distinct)
	if err != nil {
		r.logger.Warn("existing record lookup failed", zap.String("table", req.Table), zap.Int("keys", len(distinct)), zap.Error(err))
		for i := range chunk {
			if keys[i] != "" {
				outcomes[i].err = err.Error()
			}
		}
		return collect(chunk, outcomes)
	}

	ids := make(map[string][]string, len(existing))
	for _, e := range existing {
		k := models.NormalizeKey(e.Key)
		ids[k] = append(ids[k], e.ID)
	}
	for i := range chunk {
		if keys[i] != "" {
			outcomes[i] = decide(ids[keys[i]], req.Options.UpsertMode)
		}
	}

	r.execute(ctx, chunk, outcomes, req)
	return collect(chunk, outcomes)
}

func decide(ids []string, mode models.UpsertMode) rowOutcome {
	switch {
	case len(ids) > 0 && mode == models.UpsertModeInsert:
		return rowOutcome{err: msgAlreadyExists}
	case len(ids) > 1:
		return rowOutcome{err: fmt.Sprintf("matches %d existing records", len(ids))}
	case len(ids) == 1:
		return rowOutcome{disp: dispUpdate, id: ids[0]}
	case mode == models.UpsertModeUpdate:
		return rowOutcome{err: msgNotFound}
	default:
		return rowOutcome{disp: dispInsert}
	}
}

// execute issues one InsertMany for the chunk's inserts and one UpdateByID per
// update. A failed call marks exactly the rows it carried.
func (r *Reconciler) execute(ctx context.Context, chunk []models.TransformedRecord, outcomes []rowOutcome, req ReconcileRequest) {
	var inserts, updates []int
	for i, o := range outcomes {
		switch {
		case o.err != "":
		case o.disp == dispInsert:
			inserts = append(inserts, i)
		case o.disp == dispUpdate:
			updates = append(updates, i)
		}
	}

	var g errgroup.Group
	g.SetLimit(r.updateConcurrency + 1)

	if len(inserts) > 0 {
		g.Go(func() error {
			payloads := make([]map[string]interface{}, len(inserts))
			for j, i := range inserts {
				p := chunk[i].Payload()
				if req.CreatorField != "" && req.ActorID != "" {
					p[req.CreatorField] = req.ActorID
				}
				payloads[j] = p
			}
			n, err := r.store.InsertMany(ctx, req.Table, payloads)
			if err != nil {
				r.logger.Warn("batch insert failed", zap.String("table", req.Table), zap.Int("rows", len(inserts)), zap.Error(err))
				for _, i := range inserts {
					outcomes[i] = rowOutcome{err: err.Error()}
				}
				return nil
			}
			if n != int64(len(inserts)) {
				r.logger.Warn("batch insert count mismatch", zap.String("table", req.Table), zap.Int("sent", len(inserts)), zap.Int64("created", n))
			}
			return nil
		})
	}

	for _, i := range updates {
		i := i
		g.Go(func() error {
			if err := r.store.UpdateByID(ctx, req.Table, outcomes[i].id, chunk[i].Payload()); err != nil {
				r.logger.Warn("update failed", zap.String("table", req.Table), zap.String("id", outcomes[i].id), zap.Int("row", chunk[i].RowNumber), zap.Error(err))
				outcomes[i] = rowOutcome{err: err.Error()}
			}
			return nil
		})
	}

	_ = g.Wait()
}

func collect(chunk []models.TransformedRecord, outcomes []rowOutcome) models.ImportResult {
	res := models.ImportResult{Errors: []models.RowError{}}
	for i, o := range outcomes {
		switch {
		case o.err != "":
			res.Errors = append(res.Errors, models.RowError{Row: chunk[i].RowNumber, Error: o.err})
		case o.disp == dispInsert:
			res.Inserted++
		case o.disp == dispUpdate:
			res.Updated++
		}
	}
	return res
}

func cancelled(rest []models.TransformedRecord) models.ImportResult {
	res := models.ImportResult{Errors: make([]models.RowError, 0, len(rest)), Cancelled: true}
	for _, rec := range rest {
		res.Errors = append(res.Errors, models.RowError{Row: rec.RowNumber, Error: msgCancelled})
	}
	return res
}
