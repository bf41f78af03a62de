package repository

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRecordStore implements RecordStore on MongoDB, one collection per table.
// Documents use a string _id.
type MongoRecordStore struct {
	db *mongo.Database
}

func NewMongoRecordStore(db *mongo.Database) *MongoRecordStore {
	return &MongoRecordStore{db: db}
}

// keySpaceClass is keyTrimChars as a PCRE character class.
const keySpaceClass = `[\t\n\x0B\f\r \x{85}\x{A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}]`

// keyFilter selects documents whose keyField equals one of keys up to case and
// surrounding whitespace. $toLower is ASCII only, so keys become anchored
// case-insensitive regexes, which PCRE applies to all of Unicode.
func keyFilter(keyField string, keys []string) bson.M {
	patterns := make(bson.A, 0, len(keys))
	for _, k := range keys {
		patterns = append(patterns, primitive.Regex{
			Pattern: "^" + keySpaceClass + "*" + regexp.QuoteMeta(k) + keySpaceClass + "*$",
			Options: "i",
		})
	}
	return bson.M{keyField: bson.M{"$in": patterns}}
}

func documentID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	default:
		return fmt.Sprint(id)
	}
}

func (s *MongoRecordStore) LookupByKeys(ctx context.Context, table, keyField string, keys []string) ([]ExistingRecord, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if err := checkIdentifiers(table, keyField); err != nil {
		return nil, err
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1, keyField: 1})
	cursor, err := s.db.Collection(table).Find(ctx, keyFilter(keyField, keys), opts)
	if err != nil {
		return nil, fmt.Errorf("lookup %s by %s: %w", table, keyField, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	wanted := newKeySet(keys)
	out := make([]ExistingRecord, 0, len(docs))
	for _, d := range docs {
		key := fmt.Sprint(d[keyField])
		if wanted.has(key) {
			out = append(out, ExistingRecord{ID: documentID(d["_id"]), Key: key})
		}
	}
	return out, nil
}

func (s *MongoRecordStore) InsertMany(ctx context.Context, table string, records []map[string]interface{}) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := checkIdentifiers(table); err != nil {
		return 0, err
	}
	docs := make([]interface{}, 0, len(records))
	for _, rec := range records {
		doc := bson.M{"_id": uuid.NewString()}
		for k, v := range rec {
			doc[k] = v
		}
		docs = append(docs, doc)
	}

	res, err := s.db.Collection(table).InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return int64(len(res.InsertedIDs)), nil
}

func (s *MongoRecordStore) UpdateByID(ctx context.Context, table, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if err := checkIdentifiers(table); err != nil {
		return err
	}
	res, err := s.db.Collection(table).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}
	if res.MatchedCount == 0 {
		return &ErrRecordNotFound{Table: table, ID: id}
	}
	return nil
}
