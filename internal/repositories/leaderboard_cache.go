package repositories

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/lingoroots/backend/internal/models"
)

const (
	leaderboardKey      = "leaderboard:points"
	leaderboardNamesKey = "leaderboard:names"
	// leaderboardBuiltKey is set by Replace; without it the set may hold only part of the board
	leaderboardBuiltKey = "leaderboard:built"
)

// leaderboardCache keeps points in a sorted set and display names in a hash
type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a Redis backed leaderboard
func NewLeaderboardCache(client *redis.Client) *leaderboardCache {
	return &leaderboardCache{client: client}
}

// SetScore records the current points of a user. A lower total than the cached
// one is ignored since points never decrease.
func (c *leaderboardCache) SetScore(ctx context.Context, userID int, displayName string, points int) error {
	member := strconv.Itoa(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddArgs(ctx, leaderboardKey, redis.ZAddArgs{
			GT:      true,
			Members: []redis.Z{{Score: float64(points), Member: member}},
		})
		pipe.HSet(ctx, leaderboardNamesKey, member, displayName)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}
	return nil
}

// SetName updates the cached display name of a user already on the board
func (c *leaderboardCache) SetName(ctx context.Context, userID int, displayName string) error {
	member := strconv.Itoa(userID)
	if err := c.client.ZScore(ctx, leaderboardKey, member).Err(); err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("failed to read leaderboard score: %w", err)
	}
	if err := c.client.HSet(ctx, leaderboardNamesKey, member, displayName).Err(); err != nil {
		return fmt.Errorf("failed to update leaderboard name: %w", err)
	}
	return nil
}

// Top returns the highest scores, ranked from 1. built reports whether the
// board was loaded by Replace; when false the entries are not authoritative.
func (c *leaderboardCache) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error) {
	var (
		builtCmd *redis.IntCmd
		rangeCmd *redis.ZSliceCmd
	)
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		builtCmd = pipe.Exists(ctx, leaderboardBuiltKey)
		rangeCmd = pipe.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1))
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	built := builtCmd.Val() > 0
	zs := rangeCmd.Val()
	if len(zs) == 0 {
		return []models.LeaderboardEntry{}, built, nil
	}

	members := make([]string, 0, len(zs))
	for _, z := range zs {
		members = append(members, fmt.Sprint(z.Member))
	}
	names, err := c.client.HMGet(ctx, leaderboardNamesKey, members...).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard names: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		userID, err := strconv.Atoi(members[i])
		if err != nil {
			continue
		}
		name, _ := names[i].(string)
		entries = append(entries, models.LeaderboardEntry{
			Rank:        len(entries) + 1,
			UserID:      userID,
			DisplayName: name,
			Points:      int(z.Score),
		})
	}
	return entries, built, nil
}

// Replace swaps the whole board for entries atomically and marks it built
func (c *leaderboardCache) Replace(ctx context.Context, entries []models.LeaderboardEntry) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, leaderboardKey, leaderboardNamesKey)
		pipe.Set(ctx, leaderboardBuiltKey, 1, 0)
		if len(entries) == 0 {
			return nil
		}
		zs := make([]*redis.Z, 0, len(entries))
		names := make([]any, 0, len(entries)*2)
		for _, e := range entries {
			member := strconv.Itoa(e.UserID)
			zs = append(zs, &redis.Z{Score: float64(e.Points), Member: member})
			names = append(names, member, e.DisplayName)
		}
		pipe.ZAdd(ctx, leaderboardKey, zs...)
		pipe.HSet(ctx, leaderboardNamesKey, names...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}
	return nil
}
