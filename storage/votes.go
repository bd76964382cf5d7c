package storage

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/gottatouchsomegrass/civic-cast/logging"
)

type VoteStorage interface {
	// Create persists a vote under the composite uniqueness key and returns
	// ErrVoteAlreadyExists when a vote for the same (voter, election, post)
	// triple is already present. This conditional write is the authoritative
	// duplicate-vote guard.
	Create(ctx context.Context, vote *Vote) error
	GetAll(ctx context.Context) ([]*Vote, error)
	GetByVoterAndElection(ctx context.Context, voterID, electionID string) ([]*Vote, error)
	GetByElection(ctx context.Context, electionID string) ([]*Vote, error)
	GetByVoter(ctx context.Context, voterID string) ([]*Vote, error)
	Delete(ctx context.Context, pk, sk string) error
}

type DynamoVoteStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoVoteStorage) Create(ctx context.Context, vote *Vote) error {
	item, err := attributevalue.MarshalMap(vote)
	if err != nil {
		logging.Log.Errorf("VOTE: failed to marshal vote: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrVoteAlreadyExists
		}
		logging.Log.Errorf("VOTE: failed to create vote: %v", err)
		return err
	}
	return nil
}

func (s *DynamoVoteStorage) GetAll(ctx context.Context) ([]*Vote, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("VOTE: scan failed: %v", err)
		return nil, err
	}

	var votes []*Vote
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &votes); err != nil {
		logging.Log.Errorf("VOTE: failed to unmarshal vote list: %v", err)
		return nil, err
	}
	return votes, nil
}

func (s *DynamoVoteStorage) GetByVoterAndElection(ctx context.Context, voterID, electionID string) ([]*Vote, error) {
	out, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.TableName,
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: VoteKey(voterID, electionID)},
		},
	})
	if err != nil {
		logging.Log.Errorf("VOTE: failed to query votes for voter %s: %v", voterID, err)
		return nil, err
	}

	var votes []*Vote
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &votes); err != nil {
		logging.Log.Errorf("VOTE: failed to unmarshal votes for voter %s: %v", voterID, err)
		return nil, err
	}
	return votes, nil
}

func (s *DynamoVoteStorage) GetByElection(ctx context.Context, electionID string) ([]*Vote, error) {
	return s.scanWithFilter(ctx, "ElectionID = :val", electionID)
}

func (s *DynamoVoteStorage) GetByVoter(ctx context.Context, voterID string) ([]*Vote, error) {
	return s.scanWithFilter(ctx, "VoterID = :val", voterID)
}

func (s *DynamoVoteStorage) scanWithFilter(ctx context.Context, filter, value string) ([]*Vote, error) {
	var votes []*Vote
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         &s.TableName,
			FilterExpression:  aws.String(filter),
			ExclusiveStartKey: lastEvaluatedKey,
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":val": &types.AttributeValueMemberS{Value: value},
			},
		})
		if err != nil {
			logging.Log.Errorf("VOTE: filtered scan failed: %v", err)
			return nil, err
		}

		var page []*Vote
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			logging.Log.Errorf("VOTE: failed to unmarshal vote page: %v", err)
			return nil, err
		}
		votes = append(votes, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = out.LastEvaluatedKey
	}

	return votes, nil
}

func (s *DynamoVoteStorage) Delete(ctx context.Context, pk, sk string) error {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.TableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		logging.Log.Errorf("VOTE: DEL storage item failed: %v", err)
		return err
	}
	return nil
}
