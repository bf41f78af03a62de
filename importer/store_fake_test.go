package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/admin5fedu/duraval-app-sub010/repository"
)

// memStore is an in-memory RecordStore. Chunk boundaries are inferred from
// lookups: every chunk issues exactly one LookupByKeys before writing.
type memStore struct {
	mu     sync.Mutex
	tables map[string][]map[string]interface{}
	nextID int

	lookups int
	inserts int
	updates int

	chunk      int
	failChunk  int
	failInsert error
	failUpdate map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		tables:    make(map[string][]map[string]interface{}),
		chunk:     -1,
		failChunk: -1,
	}
}

var errBackend = errors.New("backend unavailable")

func (m *memStore) seed(table string, rec map[string]interface{}) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("id-%d", m.nextID)
	cp := map[string]interface{}{"id": id}
	for k, v := range rec {
		cp[k] = v
	}
	m.tables[table] = append(m.tables[table], cp)
	return id
}

func (m *memStore) LookupByKeys(_ context.Context, table, keyField string, keys []string) ([]repository.ExistingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	m.chunk++
	if m.chunk == m.failChunk {
		return nil, errBackend
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []repository.ExistingRecord
	for _, rec := range m.tables[table] {
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
	if m.chunk == m.failChunk {
		return 0, errBackend
	}
	if m.failInsert != nil {
		return 0, m.failInsert
	}
	for _, rec := range records {
		m.nextID++
		cp := map[string]interface{}{"id": fmt.Sprintf("id-%d", m.nextID)}
		for k, v := range rec {
			cp[k] = v
		}
		m.tables[table] = append(m.tables[table], cp)
	}
	return int64(len(records)), nil
}

func (m *memStore) UpdateByID(_ context.Context, table, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.chunk == m.failChunk {
		return errBackend
	}
	if err := m.failUpdate[id]; err != nil {
		return err
	}
	for _, rec := range m.tables[table] {
		if rec["id"] == id {
			for k, v := range fields {
				rec[k] = v
			}
			return nil
		}
	}
	return &repository.ErrRecordNotFound{Table: table, ID: id}
}

func (m *memStore) count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables[table])
}

func (m *memStore) find(table, field string, value interface{}) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.tables[table] {
		if rec[field] == value {
			return rec
		}
	}
	return nil
}

func makeRecords(n int) []models.TransformedRecord {
	out := make([]models.TransformedRecord, n)
	for i := range out {
		out[i] = models.TransformedRecord{
			RowNumber: i + 1,
			Fields: map[string]models.Value{
				"ma":  models.TextValue(fmt.Sprintf("K%03d", i+1)),
				"ten": models.TextValue(fmt.Sprintf("Name %d", i+1)),
			},
		}
	}
	return out
}
