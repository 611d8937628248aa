package db

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ruimo/klavier-core-sub000/chunk"
	"github.com/ruimo/klavier-core-sub000/constants"
	"github.com/ruimo/klavier-core-sub000/model"
)

var (
	ErrNotFound    = errors.New("performance not found")
	ErrTooManyIDs  = errors.New("too many ids for one batch")
	ErrInvalidItem = errors.New("invalid performance item")
)

// Store keeps performances in a DynamoDB table keyed by PK.
type Store struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

func New(endpoint, region, table string) (*Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String(region),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		return nil, errors.Wrap(err, "Could not create a new DynamoDB session")
	}
	return NewWithClient(dynamodb.New(sess), table), nil
}

func NewWithClient(client dynamodbiface.DynamoDBAPI, table string) *Store {
	return &Store{client: client, table: table}
}

func (s *Store) Put(p model.Performance) (model.Performance, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := s.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      toItem(p),
	})
	if err != nil {
		return p, errors.Wrap(err, "Error from DynamoDB")
	}
	log.Info("stored performance", "id", p.ID, "table", s.table)
	return p, nil
}

func (s *Store) Get(id string) (model.Performance, error) {
	res, err := s.BatchGet([]string{id})
	if err != nil {
		return model.Performance{}, err
	}
	p, ok := res[id]
	if !ok {
		return p, errors.Wrapf(ErrNotFound, "%q", id)
	}
	return p, nil
}

// BatchGet looks up at most constants.BatchGetLimit ids. Missing ids are
// absent from the result.
func (s *Store) BatchGet(ids []string) (map[string]model.Performance, error) {
	if len(ids) > constants.BatchGetLimit {
		return nil, errors.Wrapf(ErrTooManyIDs, "%d", len(ids))
	}

	res := make(map[string]model.Performance)
	if len(ids) == 0 {
		return res, nil
	}

	var keys []map[string]*dynamodb.AttributeValue
	for _, id := range ids {
		keys = append(keys, map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(id)},
		})
	}

	out, err := s.client.BatchGetItem(&dynamodb.BatchGetItemInput{
		RequestItems: map[string]*dynamodb.KeysAndAttributes{
			s.table: {Keys: keys},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "Error from DynamoDB")
	}

	for _, item := range out.Responses[s.table] {
		p, err := fromItem(item)
		if err != nil {
			return nil, err
		}
		res[p.ID] = p
	}
	return res, nil
}

func number(v uint32) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{N: aws.String(strconv.FormatUint(uint64(v), 10))}
}

func toItem(p model.Performance) map[string]*dynamodb.AttributeValue {
	chunks := make([]*dynamodb.AttributeValue, len(p.Chunks))
	for i, c := range p.Chunks {
		chunks[i] = &dynamodb.AttributeValue{L: []*dynamodb.AttributeValue{number(c.StartTick), number(c.EndTick)}}
	}
	warnings := make([]*dynamodb.AttributeValue, len(p.Warnings))
	for i, w := range p.Warnings {
		warnings[i] = &dynamodb.AttributeValue{S: aws.String(w)}
	}
	return map[string]*dynamodb.AttributeValue{
		"PK":       {S: aws.String(p.ID)},
		"Name":     {S: aws.String(p.Name)},
		"Chunks":   {L: chunks},
		"Warnings": {L: warnings},
	}
}

func parseNumber(v *dynamodb.AttributeValue) (uint32, error) {
	if v == nil || v.N == nil {
		return 0, errors.Wrap(ErrInvalidItem, "missing number")
	}
	n, err := strconv.ParseUint(*v.N, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidItem, "%v", err)
	}
	return uint32(n), nil
}

func fromItem(item map[string]*dynamodb.AttributeValue) (model.Performance, error) {
	var p model.Performance
	if v := item["PK"]; v == nil || v.S == nil {
		return p, errors.Wrap(ErrInvalidItem, "missing PK")
	}
	p.ID = *item["PK"].S
	if v := item["Name"]; v != nil && v.S != nil {
		p.Name = *v.S
	}
	if v := item["Chunks"]; v != nil {
		for _, pair := range v.L {
			if pair == nil || len(pair.L) != 2 {
				return p, errors.Wrapf(ErrInvalidItem, "chunk of %s", p.ID)
			}
			start, err := parseNumber(pair.L[0])
			if err != nil {
				return p, err
			}
			end, err := parseNumber(pair.L[1])
			if err != nil {
				return p, err
			}
			p.Chunks = append(p.Chunks, chunk.New(start, end))
		}
	}
	if v := item["Warnings"]; v != nil {
		for _, w := range v.L {
			if w != nil && w.S != nil {
				p.Warnings = append(p.Warnings, *w.S)
			}
		}
	}
	return p, nil
}
