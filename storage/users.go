package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/gottatouchsomegrass/civic-cast/logging"
)

type UserStorage interface {
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	GetByRole(ctx context.Context, role string) ([]*User, error)
	GetCandidatesByElection(ctx context.Context, electionID string) ([]*User, error)
	Create(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	// IncrementVoteCount applies an atomic delta to the denormalized tally.
	IncrementVoteCount(ctx context.Context, id string, delta int) error
	// SetVoteCount overwrites the tally, used by the recount repair path.
	SetVoteCount(ctx context.Context, id string, count int) error
}

type DynamoUserStorage struct {
	Client    *dynamodb.Client
	TableName string
}

// Email uniqueness is enforced with a companion marker item sharing the user
// table, keyed by the normalized email. Both items are written in one
// transaction so two concurrent signups cannot both land.
const emailMarkerPrefix = "email#"

func emailKey(email string) string {
	return emailMarkerPrefix + email
}

func (s *DynamoUserStorage) Get(ctx context.Context, id string) (*User, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("USER: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("USER: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrItemNotFound
	}

	var user *User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		logging.Log.Errorf("USER: failed to unmarshal result: %v", err)
		return nil, err
	}
	return user, nil
}

func (s *DynamoUserStorage) GetByEmail(ctx context.Context, email string) (*User, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("Email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		logging.Log.Errorf("USER: scan by email failed: %v", err)
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, ErrItemNotFound
	}

	var users []*User
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &users); err != nil {
		logging.Log.Errorf("USER: failed to unmarshal users for email %s: %v", email, err)
		return nil, err
	}
	return users[0], nil
}

func (s *DynamoUserStorage) GetAll(ctx context.Context) ([]*User, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("NOT begins_with(PK, :marker)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":marker": &types.AttributeValueMemberS{Value: emailMarkerPrefix},
		},
	})
	if err != nil {
		logging.Log.Errorf("USER: scan failed: %v", err)
		return nil, err
	}

	var users []*User
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &users); err != nil {
		logging.Log.Errorf("USER: failed to unmarshal list: %v", err)
		return nil, err
	}
	return users, nil
}

func (s *DynamoUserStorage) GetByRole(ctx context.Context, role string) ([]*User, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("#role = :role"),
		ExpressionAttributeNames: map[string]string{
			"#role": "Role",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":role": &types.AttributeValueMemberS{Value: role},
		},
	})
	if err != nil {
		logging.Log.Errorf("USER: scan by role failed: %v", err)
		return nil, err
	}

	var users []*User
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &users); err != nil {
		logging.Log.Errorf("USER: failed to unmarshal users with role %s: %v", role, err)
		return nil, err
	}
	return users, nil
}

func (s *DynamoUserStorage) GetCandidatesByElection(ctx context.Context, electionID string) ([]*User, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("#role = :role AND ElectionID = :election"),
		ExpressionAttributeNames: map[string]string{
			"#role": "Role",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":role":     &types.AttributeValueMemberS{Value: RoleCandidate},
			":election": &types.AttributeValueMemberS{Value: electionID},
		},
	})
	if err != nil {
		logging.Log.Errorf("USER: scan candidates for election %s failed: %v", electionID, err)
		return nil, err
	}

	var users []*User
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &users); err != nil {
		logging.Log.Errorf("USER: failed to unmarshal candidates: %v", err)
		return nil, err
	}
	return users, nil
}

func (s *DynamoUserStorage) Create(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		logging.Log.Errorf("USER: failed to marshal user: %v", err)
		return err
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &s.TableName,
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Put: &types.Put{
					TableName: &s.TableName,
					Item: map[string]types.AttributeValue{
						"PK":     &types.AttributeValueMemberS{Value: emailKey(user.Email)},
						"UserID": &types.AttributeValueMemberS{Value: user.ID},
					},
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, reason := range canceled.CancellationReasons {
				if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
					return ErrItemAlreadyExists
				}
			}
		}
		logging.Log.Errorf("USER: transactional PUT failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoUserStorage) Delete(ctx context.Context, id string) error {
	// Load the user first, the email marker has to go with it.
	user, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil
		}
		return err
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName: &s.TableName,
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: id},
					},
				},
			},
			{
				Delete: &types.Delete{
					TableName: &s.TableName,
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: emailKey(user.Email)},
					},
				},
			},
		},
	})
	if err != nil {
		logging.Log.Errorf("USER: DEL storage item failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoUserStorage) IncrementVoteCount(ctx context.Context, id string, delta int) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("ADD VoteCount :delta"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: strconv.Itoa(delta)},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrItemNotFound
		}
		logging.Log.Errorf("USER: vote count increment failed for %s: %v", id, err)
		return err
	}
	return nil
}

func (s *DynamoUserStorage) SetVoteCount(ctx context.Context, id string, count int) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET VoteCount = :count"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":count": &types.AttributeValueMemberN{Value: strconv.Itoa(count)},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrItemNotFound
		}
		logging.Log.Errorf("USER: vote count overwrite failed for %s: %v", id, err)
		return err
	}
	return nil
}
