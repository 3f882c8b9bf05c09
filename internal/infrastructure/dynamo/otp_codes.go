package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-api-otp/internal/domain"
)

// OTPRepo stores one pending code per identifier.
// PK: identifier. Items carry a numeric ttl attribute for native expiry.
type OTPRepo struct {
	client    API
	tableName string
	retention time.Duration
}

// NewOTPRepo builds the repo. DynamoDB deletes an item once ExpiresAt plus
// retention has passed; until then Get still returns it.
func NewOTPRepo(client API, tableName string, retention time.Duration) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName, retention: retention}
}

type otpItem struct {
	domain.OTPRecord
	TTL int64 `dynamodbav:"ttl"`
}

func (r *OTPRepo) Put(ctx context.Context, rec *domain.OTPRecord) error {
	item, err := attributevalue.MarshalMap(otpItem{
		OTPRecord: *rec,
		TTL:       rec.ExpiresAt.Add(r.retention).Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPRepo) Get(ctx context.Context, identifier string) (*domain.OTPRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldIdentifier, identifier),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var it otpItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}
	return &it.OTPRecord, nil
}

func (r *OTPRepo) Delete(ctx context.Context, identifier string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldIdentifier, identifier),
	})
	return err
}
