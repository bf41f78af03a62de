package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRecordStore implements RecordStore on a relational database through GORM.
// Tables are addressed by name; every table must carry an "id" primary key.
type GormRecordStore struct {
	db *gorm.DB
}

func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: db}
}

type keyRow struct {
	ID       string `gorm:"column:id"`
	MatchKey string `gorm:"column:match_key"`
}

func (s *GormRecordStore) LookupByKeys(ctx context.Context, table, keyField string, keys []string) ([]ExistingRecord, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if err := checkIdentifiers(table, keyField); err != nil {
		return nil, err
	}

	// LOWER follows the database LC_CTYPE; a UTF-8 locale lowers non-ASCII
	// letters like NormalizeKey does.
	var rows []keyRow
	err := s.db.WithContext(ctx).
		Table(table).
		Select("? AS id, ? AS match_key", clause.Column{Name: "id"}, clause.Column{Name: keyField}).
		Where("LOWER(BTRIM(?, ?)) IN ?", clause.Column{Name: keyField}, keyTrimChars, keys).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lookup %s by %s: %w", table, keyField, err)
	}

	wanted := newKeySet(keys)
	out := make([]ExistingRecord, 0, len(rows))
	for _, r := range rows {
		if wanted.has(r.MatchKey) {
			out = append(out, ExistingRecord{ID: r.ID, Key: r.MatchKey})
		}
	}
	return out, nil
}

func (s *GormRecordStore) InsertMany(ctx context.Context, table string, records []map[string]interface{}) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := checkIdentifiers(table); err != nil {
		return 0, err
	}
	for _, rec := range records {
		for col := range rec {
			if err := checkIdentifiers(col); err != nil {
				return 0, err
			}
		}
	}

	res := s.db.WithContext(ctx).Table(table).Create(&records)
	if res.Error != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormRecordStore) UpdateByID(ctx context.Context, table, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	names := []string{table}
	for col := range fields {
		names = append(names, col)
	}
	if err := checkIdentifiers(names...); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Table(table).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update %s %s: %w", table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &ErrRecordNotFound{Table: table, ID: id}
	}
	return nil
}
