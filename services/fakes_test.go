package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	apperrors "github.com/admin5fedu/duraval-app-sub010/common/errors"
	"github.com/admin5fedu/duraval-app-sub010/importer"
	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/admin5fedu/duraval-app-sub010/registry"
	"github.com/admin5fedu/duraval-app-sub010/repository"
)

type memStore struct {
	mu      sync.Mutex
	rows    map[string][]map[string]interface{}
	nextID  int
	inserts int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string][]map[string]interface{})}
}

func (m *memStore) seed(table string, rec map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec["id"] = fmt.Sprintf("id-%d", m.nextID)
	m.rows[table] = append(m.rows[table], rec)
}

func (m *memStore) LookupByKeys(_ context.Context, table, keyField string, keys []string) ([]repository.ExistingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []repository.ExistingRecord
	for _, rec := range m.rows[table] {
		key := fmt.Sprint(rec[keyField])
		if want[models.NormalizeKey(key)] {
			out = append(out, repository.ExistingRecord{ID: rec["id"].(string), Key: key})
		}
	}
	return out, nil
}

func (m *memStore) InsertMany(_ context.Context, table string, records []map[string]interface{}) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	for _, rec := range records {
		m.nextID++
		rec["id"] = fmt.Sprintf("id-%d", m.nextID)
		m.rows[table] = append(m.rows[table], rec)
	}
	return int64(len(records)), nil
}

func (m *memStore) UpdateByID(_ context.Context, table, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.rows[table] {
		if rec["id"] == id {
			for k, v := range fields {
				rec[k] = v
			}
			return nil
		}
	}
	return &repository.ErrRecordNotFound{Table: table, ID: id}
}

func (m *memStore) find(table, field string, value interface{}) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.rows[table] {
		if rec[field] == value {
			return rec
		}
	}
	return nil
}

// testModule is a small product catalogue import.
func testModule(policy models.DuplicatePolicy) registry.Module {
	return registry.Module{
		Name:         "san-pham",
		Title:        "Sản phẩm",
		Table:        "san_pham",
		KeyField:     "ma",
		CreatorField: "nguoi_tao_id",
		Mappings: []models.ColumnMapping{
			{Field: "ma", Label: "Mã", Aliases: []string{"Code"}, Required: true, Type: models.ValueTypeText, Example: "SP01"},
			{Field: "ten", Label: "Tên", Aliases: []string{"Name"}, Required: true, Type: models.ValueTypeText, Example: "Bàn"},
			{Field: "gia", Label: "Giá", Aliases: []string{"Price"}, Type: models.ValueTypeNumber, Example: "1500"},
		},
		DuplicatePolicy: policy,
	}
}

func newTestService(store *memStore, policy models.DuplicatePolicy, opts ...ServiceOption) *ImportService {
	reg := registry.New()
	reg.MustRegister(testModule(policy))
	return NewImportService(reg, importer.NewReconciler(store, importer.WithChunkSize(2)), opts...)
}

func textRow(cells ...string) []models.Value {
	out := make([]models.Value, len(cells))
	for i, c := range cells {
		out[i] = models.TextValue(c)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ImportCompletedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt models.ImportCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemFiles() *memFiles { return &memFiles{files: make(map[string][]byte)} }

func (f *memFiles) Save(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = append([]byte(nil), data...)
	return nil
}

func (f *memFiles) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *memFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key)
	return nil
}

type memJobs struct {
	mu      sync.Mutex
	jobs    map[string]models.ImportJob
	history []models.JobStatus
}

func newMemJobs() *memJobs { return &memJobs{jobs: make(map[string]models.ImportJob)} }

func (j *memJobs) Save(_ context.Context, job *models.ImportJob) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[job.ID] = *job
	j.history = append(j.history, job.Status)
	return nil
}

func (j *memJobs) Get(_ context.Context, id string) (*models.ImportJob, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, ok := j.jobs[id]
	if !ok {
		return nil, apperrors.ErrJobNotFound
	}
	return &job, nil
}

func (j *memJobs) Delete(_ context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.jobs, id)
	return nil
}

type chanQueue struct {
	ids   chan string
	acked chan string
}

func newChanQueue() *chanQueue {
	return &chanQueue{ids: make(chan string, 10), acked: make(chan string, 10)}
}

func (q *chanQueue) Enqueue(_ context.Context, id string) error {
	q.ids <- id
	return nil
}

func (q *chanQueue) Dequeue(ctx context.Context) (string, func(context.Context) error, error) {
	select {
	case <-ctx.Done():
		return "", nil, ctx.Err()
	case id := <-q.ids:
		return id, func(context.Context) error {
			q.acked <- id
			return nil
		}, nil
	}
}
