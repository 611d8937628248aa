package db

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruimo/klavier-core-sub000/chunk"
	"github.com/ruimo/klavier-core-sub000/model"
)

// fakeDynamo keeps items in memory, keyed by table and PK.
type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI
	items map[string]map[string]map[string]*dynamodb.AttributeValue
}

func newFake() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]map[string]*dynamodb.AttributeValue{}}
}

func (f *fakeDynamo) PutItem(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
	table := aws.StringValue(in.TableName)
	if f.items[table] == nil {
		f.items[table] = map[string]map[string]*dynamodb.AttributeValue{}
	}
	f.items[table][aws.StringValue(in.Item["PK"].S)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) BatchGetItem(in *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
	out := &dynamodb.BatchGetItemOutput{Responses: map[string][]map[string]*dynamodb.AttributeValue{}}
	for table, ka := range in.RequestItems {
		for _, key := range ka.Keys {
			if item, ok := f.items[table][aws.StringValue(key["PK"].S)]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func TestPutAndGet(t *testing.T) {
	s := NewWithClient(newFake(), "performances")
	p, err := s.Put(model.Performance{
		Name:     "dc",
		Chunks:   []chunk.Chunk{chunk.New(0, 1440), chunk.New(0, 480)},
		Warnings: []string{"w"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBatchGet(t *testing.T) {
	s := NewWithClient(newFake(), "performances")
	var ids []string
	for i := 0; i < 3; i++ {
		p, err := s.Put(model.Performance{ID: fmt.Sprintf("id-%d", i), Chunks: []chunk.Chunk{chunk.New(0, chunk.OpenEnd)}})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	res, err := s.BatchGet(append(ids, "nope"))
	require.NoError(t, err)
	assert.Len(t, res, 3)
	assert.True(t, res["id-1"].Chunks[0].IsOpenEnded())

	res, err = s.BatchGet(nil)
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = s.BatchGet(make([]string, 11))
	assert.ErrorIs(t, err, ErrTooManyIDs)
}

func TestFromItemRejectsBadChunks(t *testing.T) {
	item := toItem(model.Performance{ID: "x", Chunks: []chunk.Chunk{chunk.New(1, 2)}})
	item["Chunks"].L[0].L = item["Chunks"].L[0].L[:1]
	_, err := fromItem(item)
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = fromItem(map[string]*dynamodb.AttributeValue{})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestItemShape(t *testing.T) {
	item := toItem(model.Performance{ID: "x", Name: "n", Chunks: []chunk.Chunk{chunk.New(0, chunk.OpenEnd)}})
	assert.Equal(t, "x", aws.StringValue(item["PK"].S))
	assert.Equal(t, "4294967295", aws.StringValue(item["Chunks"].L[0].L[1].N))
	assert.Empty(t, item["Warnings"].L)
}
