package dynamodb

import (
	"context"
	"testing"
	"time"

	"schemagraph/domain/core/entities"
	apperrors "schemagraph/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockDynamoDB struct {
	mock.Mock
}

func (m *MockDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.PutItemOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.GetItemOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDynamoDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.QueryOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func stringAttr(item map[string]types.AttributeValue, key string) string {
	if s, ok := item[key].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func TestUserRepository_Save(t *testing.T) {
	// Arrange
	client := new(MockDynamoDB)
	store := NewStore(client, "schemagraph", zap.NewNop())
	user := &entities.User{ID: "u-1", Username: "alice", PasswordHash: "hash", CreatedAt: time.Now()}

	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return aws.ToString(in.TableName) == "schemagraph" &&
			stringAttr(in.Item, "PK") == "USERNAME#alice" &&
			stringAttr(in.Item, "SK") == "PROFILE" &&
			in.ConditionExpression != nil
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()

	// Act
	err := store.Users().Save(context.Background(), user)

	// Assert
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestUserRepository_Save_Conflict(t *testing.T) {
	client := new(MockDynamoDB)
	store := NewStore(client, "schemagraph", zap.NewNop())
	client.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")})

	err := store.Users().Save(context.Background(), &entities.User{ID: "u-2", Username: "alice"})

	assert.True(t, apperrors.IsConflict(err))
}

func TestUserRepository_FindByUsername(t *testing.T) {
	client := new(MockDynamoDB)
	store := NewStore(client, "schemagraph", zap.NewNop())
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	item, err := attributevalue.MarshalMap(userItem{
		PK: "USERNAME#alice", SK: "PROFILE", EntityType: entityUser,
		UserID: "u-1", Username: "alice", PasswordHash: "hash", CreatedAt: formatTime(created),
	})
	require.NoError(t, err)

	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil).Once()
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

	user, err := store.Users().FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.True(t, created.Equal(user.CreatedAt))

	_, err = store.Users().FindByUsername(context.Background(), "bob")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDataSourceRepository_FindByOwner_PagesAndSorts(t *testing.T) {
	client := new(MockDynamoDB)
	store := NewStore(client, "schemagraph", zap.NewNop())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	later, err := attributevalue.MarshalMap(dataSourceItem{
		PK: "USER#u-1", SK: "DATASOURCE#b", DataSourceID: "b", OwnerID: "u-1", CreatedAt: formatTime(base.Add(time.Minute)),
	})
	require.NoError(t, err)
	earlier, err := attributevalue.MarshalMap(dataSourceItem{
		PK: "USER#u-1", SK: "DATASOURCE#a", DataSourceID: "a", OwnerID: "u-1", CreatedAt: formatTime(base),
	})
	require.NoError(t, err)

	lastKey := map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "USER#u-1"}}
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{later}, LastEvaluatedKey: lastKey}, nil).Once()
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{earlier}}, nil).Once()

	list, err := store.DataSources().FindByOwner(context.Background(), "u-1")

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	client.AssertExpectations(t)
}

func TestMappingRepository_SaveAndFindAll(t *testing.T) {
	client := new(MockDynamoDB)
	store := NewStore(client, "schemagraph", zap.NewNop())
	m := &entities.Mapping{
		ID: "m-1", DatasourceID: "ds-1", TableName: "Customers", ColumnName: "Email",
		NodeLabel: "Customer", PropertyName: "email", OwnerID: "u-1", CreatedAt: time.Now(),
	}

	var saved map[string]types.AttributeValue
	client.On("PutItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*dynamodb.PutItemInput).Item
	}).Return(&dynamodb.PutItemOutput{}, nil).Once()

	stored, err := store.Mappings().Save(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "m-1", stored.ID)
	assert.Equal(t, "MAPPING#ds-1#m-1", stringAttr(saved, "SK"))

	client.On("Query", mock.Anything, mock.Anything).
		Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{saved}}, nil).Once()

	list, err := store.Mappings().FindAll(context.Background(), "u-1", "ds-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Customer", list[0].NodeLabel)
	assert.Equal(t, "ds-1", list[0].DatasourceID)
}
