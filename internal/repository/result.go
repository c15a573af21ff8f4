package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

var ErrNoResults = errors.New("no results for room")

// ResultRepository - append-only archive of finished games, keyed by room
// token. This is not room persistence: live rooms stay in memory and a
// process restart loses them.
type ResultRepository interface {
	Record(ctx context.Context, result *entity.MatchResult) error
	ListByRoom(ctx context.Context, token string) ([]entity.MatchResult, error)
}

type dbResult struct {
	client *redis.Client
}

func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

func (that *dbResult) Record(ctx context.Context, result *entity.MatchResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	resultKey := "results:" + result.RoomToken
	if err = that.client.RPush(ctx, resultKey, resultJSON).Err(); err != nil {
		return fmt.Errorf("failed to append result: %w", err)
	}

	return nil
}

func (that *dbResult) ListByRoom(ctx context.Context, token string) ([]entity.MatchResult, error) {
	resultKey := "results:" + token

	entries, err := that.client.LRange(ctx, resultKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrNoResults
	}

	results := make([]entity.MatchResult, 0, len(entries))
	for _, entry := range entries {
		var result entity.MatchResult
		if err = json.Unmarshal([]byte(entry), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}

		results = append(results, result)
	}

	return results, nil
}
