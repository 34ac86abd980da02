package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoDB key constants for the single-table design.
const (
	pkPrefix   = "SESSION#"
	skSnapshot = "SNAPSHOT"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore implements SnapshotStore using AWS DynamoDB. The snapshot
// payload is stored as a compressed binary attribute; stage and updatedAt
// are duplicated as plain attributes for console inspection.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

var _ SnapshotStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table.
// The client should be initialized from the shared AWS config.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, now: time.Now}
}

type snapshotItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Stage     string `dynamodbav:"stage"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
	Payload   []byte `dynamodbav:"payload"`
}

func sessionKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pkPrefix + id},
		"SK": &types.AttributeValueMemberS{Value: skSnapshot},
	}
}

// Put replaces the session's snapshot and pushes its expiry out by
// SessionTTL.
func (s *DynamoStore) Put(ctx context.Context, snap *Snapshot) error {
	if err := ValidateID(snap.ID); err != nil {
		return err
	}
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	now := s.now()
	item, err := attributevalue.MarshalMap(snapshotItem{
		PK:        pkPrefix + snap.ID,
		SK:        skSnapshot,
		Stage:     string(snap.State.Stage),
		UpdatedAt: now.UTC().Format(time.RFC3339),
		ExpiresAt: now.Add(SessionTTL).Unix(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem PK=%s%s SK=%s: %w", pkPrefix, snap.ID, skSnapshot, err)
	}
	log.Debug().Str("session", snap.ID).Int("bytes", len(payload)).Msg("Snapshot saved to DynamoDB")
	return nil
}

// Get reads the snapshot. Items past expiresAt are treated as absent,
// since DynamoDB TTL deletion is lazy.
func (s *DynamoStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.tableName,
		Key:            sessionKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem PK=%s%s SK=%s: %w", pkPrefix, id, skSnapshot, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item snapshotItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal PK=%s%s: %w", pkPrefix, id, err)
	}
	if item.ExpiresAt > 0 && s.now().Unix() >= item.ExpiresAt {
		return nil, nil
	}
	return decode(item.Payload)
}

func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.tableName,
		Key:       sessionKey(id),
	})
	if err != nil {
		return fmt.Errorf("DeleteItem PK=%s%s SK=%s: %w", pkPrefix, id, skSnapshot, err)
	}
	return nil
}
