package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-api-otp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.PutItemOutput{}, args.Error(0)
}

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.DeleteItemOutput{}, args.Error(0)
}

func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.UpdateItemOutput{}, args.Error(0)
}

func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

var ts = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

// --- OTPRepo ---

func TestOTPRepo_PutWritesTTL(t *testing.T) {
	api := &mockAPI{}
	rec := &domain.OTPRecord{Identifier: "a@b.com", Code: "123456", IssuedAt: ts, ExpiresAt: ts.Add(5 * time.Minute)}

	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		ttl, ok := in.Item[fieldTTL].(*types.AttributeValueMemberN)
		id, _ := in.Item[fieldIdentifier].(*types.AttributeValueMemberS)
		return ok && id != nil && id.Value == "a@b.com" &&
			ttl.Value == "1769940900" // ExpiresAt + 10m
	})).Return(nil)

	repo := NewOTPRepo(api, "otp_codes", 10*time.Minute)
	require.NoError(t, repo.Put(context.Background(), rec))
	api.AssertExpectations(t)
}

func TestOTPRepo_GetRoundTripsRecord(t *testing.T) {
	api := &mockAPI{}
	rec := domain.OTPRecord{Identifier: "a@b.com", Code: "123456", IssuedAt: ts, ExpiresAt: ts.Add(5 * time.Minute)}
	item, err := attributevalue.MarshalMap(otpItem{OTPRecord: rec, TTL: 1})
	require.NoError(t, err)

	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	got, err := NewOTPRepo(api, "otp_codes", 0).Get(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", got.Code)
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))
}

func TestOTPRepo_GetMissing(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewOTPRepo(api, "otp_codes", 0).Get(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOTPRepo_Delete(t *testing.T) {
	api := &mockAPI{}
	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		s, ok := in.Key[fieldIdentifier].(*types.AttributeValueMemberS)
		return ok && s.Value == "+15551234567"
	})).Return(nil)

	require.NoError(t, NewOTPRepo(api, "otp_codes", 0).Delete(context.Background(), "+15551234567"))
	api.AssertExpectations(t)
}

// --- UserRepo ---

func TestUserRepo_CreateConflict(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return in.ConditionExpression != nil && *in.ConditionExpression == "attribute_not_exists(#pk)"
	})).Return(&types.ConditionalCheckFailedException{})

	err := NewUserRepo(api, "users").Create(context.Background(), &domain.User{UserID: "u1", Email: "a@b.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepo_CreateOtherError(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	err := NewUserRepo(api, "users").Create(context.Background(), &domain.User{Email: "a@b.com"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrConflict))
}

func TestUserRepo_GetByEmail(t *testing.T) {
	api := &mockAPI{}
	item, err := attributevalue.MarshalMap(domain.User{UserID: "u1", Email: "a@b.com", Name: "A"})
	require.NoError(t, err)
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil).Once()
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

	repo := NewUserRepo(api, "users")
	u, err := repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)

	_, err = repo.GetByEmail(context.Background(), "x@b.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_GetByIDUsesIndex(t *testing.T) {
	api := &mockAPI{}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return *in.IndexName == "user_id-index"
	})).Return(&dynamodb.QueryOutput{}, nil)

	_, err := NewUserRepo(api, "users").GetByID(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_UpdatePasswordMissing(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return *in.ConditionExpression == "attribute_exists(#pk)" && in.ExpressionAttributeNames["#pk"] == fieldEmail
	})).Return(&types.ConditionalCheckFailedException{})

	err := NewUserRepo(api, "users").UpdatePassword(context.Background(), "a@b.com", "hash", ts)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
