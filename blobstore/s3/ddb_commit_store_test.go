package s3

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blobkv/blobstore"
)

// commitTable is an in-memory stand-in for the DynamoDB commit table.
type commitTable struct {
	mu   sync.Mutex
	rows map[string]map[uint64]map[string]types.AttributeValue
}

func newCommitTable() *commitTable {
	return &commitTable{rows: make(map[string]map[uint64]map[string]types.AttributeValue)}
}

func generationOf(item map[string]types.AttributeValue) uint64 {
	gen, _ := strconv.ParseUint(item[attrGeneration].(*types.AttributeValueMemberN).Value, 10, 64)
	return gen
}

func (c *commitTable) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	uri := params.Item[attrBaseURI].(*types.AttributeValueMemberS).Value
	gen := generationOf(params.Item)

	part := c.rows[uri]
	if part == nil {
		part = make(map[uint64]map[string]types.AttributeValue)
		c.rows[uri] = part
	}

	if aws.ToString(params.ConditionExpression) == "attribute_not_exists(generation)" {
		if _, ok := part[gen]; ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	part[gen] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (c *commitTable) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	uri := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value
	part := c.rows[uri]

	gens := make([]uint64, 0, len(part))
	for gen := range part {
		gens = append(gens, gen)
	}
	slices.Sort(gens)
	if !aws.ToBool(params.ScanIndexForward) {
		slices.Reverse(gens)
	}
	if params.Limit != nil && int(*params.Limit) < len(gens) {
		gens = gens[:*params.Limit]
	}

	out := &dynamodb.QueryOutput{}
	for _, gen := range gens {
		out.Items = append(out.Items, part[gen])
	}
	return out, nil
}

func newTestCommitStore(table *commitTable, baseURI string) *DDBCommitStore {
	return NewDDBCommitStore(NewStore(&MockS3Client{}, "test-bucket", "test/"), table, "blobkv-commits", baseURI)
}

func readCurrent(t *testing.T, store blobstore.BlobStore) string {
	t.Helper()
	data, err := blobstore.ReadAll(context.Background(), store, CurrentName)
	require.NoError(t, err)
	return string(data)
}

func TestDDBCommitStore_FirstCommit(t *testing.T) {
	table := newCommitTable()
	store := newTestCommitStore(table, "s3://test-bucket/test/")
	store.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, store.Put(context.Background(), CurrentName, []byte("1")))
	assert.Equal(t, "1", readCurrent(t, store))

	row := table.rows["s3://test-bucket/test/"][1]
	assert.Equal(t, "2024-05-01T12:00:00Z", row[attrCommittedAt].(*types.AttributeValueMemberS).Value)
}

func TestDDBCommitStore_MultipleCommits(t *testing.T) {
	store := newTestCommitStore(newCommitTable(), "s3://test-bucket/test/")

	for i := 1; i <= 12; i++ {
		require.NoError(t, store.Put(context.Background(), CurrentName, []byte(strconv.Itoa(i))))
	}
	assert.Equal(t, "12", readCurrent(t, store))

	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12), latest)
}

func TestDDBCommitStore_SameGenerationOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newCommitTable(), "s3://test-bucket/test/")

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Put(ctx, CurrentName, []byte("2"))
			switch {
			case err == nil:
				successes.Add(1)
			case assert.ErrorIs(t, err, ErrConcurrentModification):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(4), conflicts.Load())
	assert.Equal(t, "2", readCurrent(t, store))
}

func TestDDBCommitStore_RejectsStaleGeneration(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newCommitTable(), "s3://test-bucket/test/")

	require.NoError(t, store.Put(ctx, CurrentName, []byte("5")))
	assert.ErrorIs(t, store.Put(ctx, CurrentName, []byte("3")), ErrStaleGeneration)
	assert.Error(t, store.Put(ctx, CurrentName, []byte("not-a-number")))
	assert.Error(t, store.Put(ctx, CurrentName, []byte("0")))
	assert.Error(t, store.Delete(ctx, CurrentName))

	assert.Equal(t, "5", readCurrent(t, store))
}

func TestDDBCommitStore_NotFoundBeforeCommit(t *testing.T) {
	store := newTestCommitStore(newCommitTable(), "s3://test-bucket/test/")

	_, err := store.Open(context.Background(), CurrentName)
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDDBCommitStore_IsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	table := newCommitTable()

	store1 := newTestCommitStore(table, "s3://bucket-a/path/")
	store2 := newTestCommitStore(table, "s3://bucket-b/path/")

	require.NoError(t, store1.Put(ctx, CurrentName, []byte("3")))
	require.NoError(t, store2.Put(ctx, CurrentName, []byte("5")))

	assert.Equal(t, "3", readCurrent(t, store1))
	assert.Equal(t, "5", readCurrent(t, store2))
}
