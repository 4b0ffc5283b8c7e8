package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/blobkv/blobstore"
)

// CurrentName is the blob name whose writes go through DynamoDB.
const CurrentName = "CURRENT"

const (
	attrBaseURI     = "base_uri"
	attrGeneration  = "generation"
	attrCommittedAt = "committed_at"
)

var (
	// ErrConcurrentModification is returned when another writer already
	// published the same generation.
	ErrConcurrentModification = errors.New("s3: concurrent modification detected")
	// ErrStaleGeneration is returned when a newer generation is already
	// published.
	ErrStaleGeneration = errors.New("s3: generation is older than CURRENT")
)

// DDBClient is the subset of the DynamoDB API used by DDBCommitStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// DDBCommitStore keeps snapshot files in S3 and the CURRENT generation in
// DynamoDB. Each published generation is a row written with
// attribute_not_exists, so two writers cannot both publish it.
//
// Table schema:
//   - Partition key: base_uri (string), the S3 location of the snapshots
//   - Sort key: generation (number)
//
//	aws dynamodb create-table \
//	  --table-name blobkv-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=generation,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=generation,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	files   *Store
	ddb     DDBClient
	table   string
	baseURI string
	now     func() time.Time
}

var _ blobstore.BlobStore = (*DDBCommitStore)(nil)

// NewDDBCommitStore layers the commit table over files. baseURI, such as
// "s3://bucket/prefix", partitions the table between stores.
func NewDDBCommitStore(files *Store, ddb DDBClient, table, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{files: files, ddb: ddb, table: table, baseURI: baseURI, now: time.Now}
}

// Open serves CURRENT from the newest row and everything else from S3.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != CurrentName {
		return s.files.Open(ctx, name)
	}

	gen, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if gen == 0 {
		return nil, blobstore.ErrNotFound
	}
	return generationBlob(strconv.FormatUint(gen, 10)), nil
}

// Put publishes CURRENT through DynamoDB and uploads everything else to S3.
// CURRENT must hold a decimal generation above the published one.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != CurrentName {
		return s.files.Put(ctx, name, data)
	}

	gen, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || gen == 0 {
		return fmt.Errorf("s3: %s must be a positive generation, got %q", CurrentName, data)
	}
	return s.publish(ctx, gen)
}

// Delete never removes commit rows; CURRENT is not deletable.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if name == CurrentName {
		return fmt.Errorf("s3: %s is kept in DynamoDB and cannot be deleted", CurrentName)
	}
	return s.files.Delete(ctx, name)
}

// List covers the S3 files only.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.files.List(ctx, prefix)
}

// Latest returns the newest published generation, 0 if none.
func (s *DDBCommitStore) Latest(ctx context.Context) (uint64, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String(attrBaseURI + " = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("s3: query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, nil
	}

	attr, ok := resp.Items[0][attrGeneration].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("s3: commit row has no numeric generation")
	}
	gen, err := strconv.ParseUint(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("s3: parse generation: %w", err)
	}
	return gen, nil
}

func (s *DDBCommitStore) publish(ctx context.Context, gen uint64) error {
	latest, err := s.Latest(ctx)
	if err != nil {
		return err
	}
	if gen < latest {
		return fmt.Errorf("%w: %d < %d", ErrStaleGeneration, gen, latest)
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			attrBaseURI:     &types.AttributeValueMemberS{Value: s.baseURI},
			attrGeneration:  &types.AttributeValueMemberN{Value: strconv.FormatUint(gen, 10)},
			attrCommittedAt: &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_not_exists(" + attrGeneration + ")"),
	})

	var condErr *types.ConditionalCheckFailedException
	switch {
	case errors.As(err, &condErr):
		return fmt.Errorf("%w: generation %d", ErrConcurrentModification, gen)
	case err != nil:
		return fmt.Errorf("s3: publish generation %d: %w", gen, err)
	}
	return nil
}

// generationBlob serves CURRENT as read from DynamoDB.
type generationBlob string

func (generationBlob) Close() error { return nil }

func (b generationBlob) Size() int64 { return int64(len(b)) }

func (b generationBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b generationBlob) Bytes() ([]byte, error) { return []byte(b), nil }
