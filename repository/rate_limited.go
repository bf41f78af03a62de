package repository

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedStore throttles every call to the wrapped store.
type RateLimitedStore struct {
	next    RecordStore
	limiter *rate.Limiter
}

// NewRateLimitedStore allows rps calls per second with the given burst.
// A non-positive rps disables throttling and returns next unchanged.
func NewRateLimitedStore(next RecordStore, rps float64, burst int) RecordStore {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedStore{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (s *RateLimitedStore) LookupByKeys(ctx context.Context, table, keyField string, keys []string) ([]ExistingRecord, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.next.LookupByKeys(ctx, table, keyField, keys)
}

func (s *RateLimitedStore) InsertMany(ctx context.Context, table string, records []map[string]interface{}) (int64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return s.next.InsertMany(ctx, table, records)
}

func (s *RateLimitedStore) UpdateByID(ctx context.Context, table, id string, fields map[string]interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.next.UpdateByID(ctx, table, id, fields)
}
