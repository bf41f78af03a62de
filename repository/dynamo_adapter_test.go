package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	mu          sync.Mutex
	items       []map[string]types.AttributeValue
	transacts   []*dynamodb.TransactWriteItemsInput
	transactErr error
	updates     []*dynamodb.UpdateItemInput
	updateErr   error
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	// two pages: first item alone, then the rest
	if in.ExclusiveStartKey == nil && len(f.items) > 1 {
		return &dynamodb.ScanOutput{Items: f.items[:1], LastEvaluatedKey: f.items[0]}, nil
	}
	if in.ExclusiveStartKey == nil {
		return &dynamodb.ScanOutput{Items: f.items}, nil
	}
	return &dynamodb.ScanOutput{Items: f.items[1:]}, nil
}

// TransactWriteItems applies every put or none of them.
func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transacts = append(f.transacts, in)
	if f.transactErr != nil {
		return nil, f.transactErr
	}
	for _, it := range in.TransactItems {
		f.items = append(f.items, it.Put.Item)
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	return &dynamodb.UpdateItemOutput{}, f.updateErr
}

func item(t *testing.T, v map[string]interface{}) map[string]types.AttributeValue {
	av, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return av
}

func TestDynamoLookupByKeys_MatchesCaseInsensitively(t *testing.T) {
	fake := &fakeDynamo{items: []map[string]types.AttributeValue{
		item(t, map[string]interface{}{"id": "a", "ma_phong_ban": "KT"}),
		item(t, map[string]interface{}{"id": "b", "ma_phong_ban": "NS"}),
		item(t, map[string]interface{}{"id": "c", "ma_phong_ban": " kt "}),
		item(t, map[string]interface{}{"id": "d"}),
	}}
	store := NewDynamoRecordStore(fake, "import_")

	got, err := store.LookupByKeys(context.Background(), "phong_ban", "ma_phong_ban", []string{"kt"})
	require.NoError(t, err)
	assert.Equal(t, []ExistingRecord{{ID: "a", Key: "KT"}, {ID: "c", Key: " kt "}}, got)
}

func TestDynamoLookupByKeys_NonASCIIKeys(t *testing.T) {
	fake := &fakeDynamo{items: []map[string]types.AttributeValue{
		item(t, map[string]interface{}{"id": "a", "ma_chi_nhanh": "ĐÀ NẴNG"}),
		item(t, map[string]interface{}{"id": "b", "ma_chi_nhanh": "DA NANG"}),
	}}
	store := NewDynamoRecordStore(fake, "")

	got, err := store.LookupByKeys(context.Background(), "chi_nhanh", "ma_chi_nhanh", []string{"đà nẵng"})
	require.NoError(t, err)
	assert.Equal(t, []ExistingRecord{{ID: "a", Key: "ĐÀ NẴNG"}}, got)
}

func TestDynamoInsertMany_SingleTransaction(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewDynamoRecordStore(fake, "import_")

	records := make([]map[string]interface{}, 60)
	for i := range records {
		records[i] = map[string]interface{}{"ma_chi_nhanh": i}
	}
	records[0]["id"] = "fixed"

	n, err := store.InsertMany(context.Background(), "chi_nhanh", records)
	require.NoError(t, err)
	assert.Equal(t, int64(60), n)
	require.Len(t, fake.transacts, 1)

	in := fake.transacts[0]
	require.Len(t, in.TransactItems, 60)
	assert.NotEmpty(t, *in.ClientRequestToken)
	put := in.TransactItems[0].Put
	assert.Equal(t, "import_chi_nhanh", *put.TableName)
	assert.Equal(t, "attribute_not_exists(#id)", *put.ConditionExpression)

	var first, second map[string]interface{}
	require.NoError(t, attributevalue.UnmarshalMap(fake.items[0], &first))
	require.NoError(t, attributevalue.UnmarshalMap(fake.items[1], &second))
	assert.Equal(t, "fixed", first["id"])
	assert.NotEmpty(t, second["id"])
	// the caller's map is left untouched
	_, hasID := records[1]["id"]
	assert.False(t, hasID)
}

func TestDynamoInsertMany_FailureWritesNothing(t *testing.T) {
	fake := &fakeDynamo{transactErr: &types.TransactionCanceledException{Message: aws.String("throttled")}}
	store := NewDynamoRecordStore(fake, "")

	records := make([]map[string]interface{}, 50)
	for i := range records {
		records[i] = map[string]interface{}{"ma_chi_nhanh": i}
	}
	n, err := store.InsertMany(context.Background(), "chi_nhanh", records)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, fake.items)
}

func TestDynamoInsertMany_OverTransactionLimit(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewDynamoRecordStore(fake, "")

	records := make([]map[string]interface{}, DynamoMaxInsertBatch+1)
	for i := range records {
		records[i] = map[string]interface{}{"ma_chi_nhanh": i}
	}
	n, err := store.InsertMany(context.Background(), "chi_nhanh", records)
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, fake.transacts)
}

func TestDynamoUpdateByID(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewDynamoRecordStore(fake, "p_")

	err := store.UpdateByID(context.Background(), "chuc_vu", "7", map[string]interface{}{"ten_chuc_vu": "GD"})
	require.NoError(t, err)
	require.Len(t, fake.updates, 1)
	in := fake.updates[0]
	assert.Equal(t, "p_chuc_vu", *in.TableName)
	assert.Equal(t, "SET #f0 = :v0", *in.UpdateExpression)
	assert.Equal(t, "ten_chuc_vu", in.ExpressionAttributeNames["#f0"])
	assert.Equal(t, "attribute_exists(#id)", *in.ConditionExpression)
}

func TestDynamoUpdateByID_MissingItem(t *testing.T) {
	fake := &fakeDynamo{updateErr: &types.ConditionalCheckFailedException{}}
	store := NewDynamoRecordStore(fake, "")

	err := store.UpdateByID(context.Background(), "chuc_vu", "7", map[string]interface{}{"ten_chuc_vu": "GD"})
	var nf *ErrRecordNotFound
	assert.True(t, errors.As(err, &nf))
}
