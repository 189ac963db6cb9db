package database

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"straphub-service/models"
)

// DynamoAPI is the subset of the DynamoDB client the repository uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoCartRepository stores cart snapshots in a DynamoDB table keyed by
// session_id. expires_at is the table's TTL attribute.
type DynamoCartRepository struct {
	client DynamoAPI
	table  string
	ttl    time.Duration
	now    func() time.Time
}

func NewDynamoCartRepository(client DynamoAPI, table string, ttl time.Duration) *DynamoCartRepository {
	return &DynamoCartRepository{client: client, table: table, ttl: ttl, now: time.Now}
}

type ddbCart struct {
	SessionID     string            `dynamodbav:"session_id"`
	SchemaVersion int               `dynamodbav:"schema_version"`
	Items         []models.LineItem `dynamodbav:"items"`
	SavedAt       time.Time         `dynamodbav:"saved_at"`
	ExpiresAt     int64             `dynamodbav:"expires_at"`
}

func (d *DynamoCartRepository) Save(ctx context.Context, sessionID string, snap models.CartSnapshot) error {
	item, err := attributevalue.MarshalMap(ddbCart{
		SessionID:     sessionID,
		SchemaVersion: snap.SchemaVersion,
		Items:         snap.Items,
		SavedAt:       snap.SavedAt,
		ExpiresAt:     d.now().Add(d.ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &d.table, Item: item}); err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamoCartRepository) Load(ctx context.Context, sessionID string) (*models.CartSnapshot, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"session_id": sessionID})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: key})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrSnapshotNotFound
	}

	var dc ddbCart
	if err := attributevalue.UnmarshalMap(out.Item, &dc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnreadable, err)
	}
	// DynamoDB deletes expired items lazily, so honour expires_at here.
	if dc.ExpiresAt > 0 && d.now().Unix() >= dc.ExpiresAt {
		return nil, ErrSnapshotNotFound
	}
	if dc.SchemaVersion != models.SnapshotSchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d", ErrSnapshotUnreadable, dc.SchemaVersion)
	}
	return &models.CartSnapshot{
		SchemaVersion: dc.SchemaVersion,
		SessionID:     dc.SessionID,
		Items:         dc.Items,
		SavedAt:       dc.SavedAt,
	}, nil
}

func (d *DynamoCartRepository) Delete(ctx context.Context, sessionID string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"session_id": sessionID})
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: &d.table, Key: key}); err != nil {
		return fmt.Errorf("dynamodb DeleteItem failed: %w", err)
	}
	return nil
}
