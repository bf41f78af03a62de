package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoRecordStore.
type DynamoAPI interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoMaxInsertBatch is the item limit of one DynamoDB transaction.
const DynamoMaxInsertBatch = 100

// DynamoRecordStore implements RecordStore on DynamoDB. Each module table maps
// to prefix+table with a string partition key "id".
type DynamoRecordStore struct {
	client DynamoAPI
	prefix string
}

func NewDynamoRecordStore(client DynamoAPI, tablePrefix string) *DynamoRecordStore {
	return &DynamoRecordStore{client: client, prefix: tablePrefix}
}

func (d *DynamoRecordStore) tableName(table string) string {
	return d.prefix + table
}

// LookupByKeys scans the table projecting id and key. DynamoDB has no
// case-insensitive comparison, so matching happens client side.
func (d *DynamoRecordStore) LookupByKeys(ctx context.Context, table, keyField string, keys []string) ([]ExistingRecord, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	wanted := newKeySet(keys)

	input := &dynamodb.ScanInput{
		TableName:                aws.String(d.tableName(table)),
		ProjectionExpression:     aws.String("#id, #k"),
		ExpressionAttributeNames: map[string]string{"#id": "id", "#k": keyField},
	}
	var out []ExistingRecord
	paginator := dynamodb.NewScanPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s failed: %w", table, err)
		}
		for _, it := range page.Items {
			var item map[string]interface{}
			if err := attributevalue.UnmarshalMap(it, &item); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			key := fmt.Sprint(item[keyField])
			if item[keyField] == nil || !wanted.has(key) {
				continue
			}
			out = append(out, ExistingRecord{ID: fmt.Sprint(item["id"]), Key: key})
		}
	}
	return out, nil
}

// InsertMany writes records in one TransactWriteItems call, so either every
// record is created or none is. A transaction holds at most
// DynamoMaxInsertBatch items; the import chunk size is capped to match.
// Records without an id get a generated one; an existing id is never
// overwritten.
func (d *DynamoRecordStore) InsertMany(ctx context.Context, table string, records []map[string]interface{}) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if len(records) > DynamoMaxInsertBatch {
		return 0, fmt.Errorf("insert of %d records exceeds the DynamoDB transaction limit of %d", len(records), DynamoMaxInsertBatch)
	}

	name := d.tableName(table)
	items := make([]types.TransactWriteItem, 0, len(records))
	for _, rec := range records {
		doc := make(map[string]interface{}, len(rec)+1)
		for k, v := range rec {
			doc[k] = v
		}
		if _, ok := doc["id"]; !ok {
			doc["id"] = uuid.NewString()
		}
		item, err := attributevalue.MarshalMap(doc)
		if err != nil {
			return 0, fmt.Errorf("marshal insert item: %w", err)
		}
		items = append(items, types.TransactWriteItem{Put: &types.Put{
			TableName:                aws.String(name),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
		}})
	}

	// The SDK retries on its own; the token makes a retried call idempotent.
	_, err := d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems:      items,
		ClientRequestToken: aws.String(uuid.NewString()),
	})
	if err != nil {
		return 0, fmt.Errorf("transactional insert failed: %w", err)
	}
	return int64(len(items)), nil
}

// UpdateByID sets the given attributes on an existing item.
func (d *DynamoRecordStore) UpdateByID(ctx context.Context, table, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	expr := "SET "
	names := map[string]string{"#id": "id"}
	values := make(map[string]types.AttributeValue, len(fields))
	i := 0
	for k, v := range fields {
		if k == "id" {
			continue
		}
		n, ph := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		if i > 0 {
			expr += ", "
		}
		expr += fmt.Sprintf("%s = %s", n, ph)
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal update value: %w", err)
		}
		names[n] = k
		values[ph] = av
		i++
	}
	if i == 0 {
		return nil
	}

	key, err := attributevalue.MarshalMap(map[string]string{"id": id})
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.tableName(table)),
		Key:                       key,
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return &ErrRecordNotFound{Table: table, ID: id}
	}
	if err != nil {
		return fmt.Errorf("update item failed: %w", err)
	}
	return nil
}
