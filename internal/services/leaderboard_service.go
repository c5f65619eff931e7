package services

import (
	"context"
	"strings"

	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	// leaderboardCacheSize is how many users a rebuild loads into the cache
	leaderboardCacheSize = 1000

	anonymousDisplayName = "Anonymous User"
	emptyNameInitials    = "LR"
	unknownInitials      = "??"
)

// LeaderboardCache is the sorted-set leaderboard. Top reports whether the
// cache holds the whole board or only scores written since it was emptied.
type LeaderboardCache interface {
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error)
	Replace(ctx context.Context, entries []models.LeaderboardEntry) error
}

// LeaderboardSource reads the authoritative ranking from the database
type LeaderboardSource interface {
	TopByPoints(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type leaderboardService struct {
	cache  LeaderboardCache
	source LeaderboardSource
	logger *zap.Logger
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(cache LeaderboardCache, source LeaderboardSource, logger *zap.Logger) *leaderboardService {
	return &leaderboardService{
		cache:  cache,
		source: source,
		logger: logger,
	}
}

// GetLeaderboard returns the top users by points. The cache is used once it has
// been built; otherwise the database answers and the cache is rebuilt.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit < 1 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	entries, built, err := s.cache.Top(ctx, limit)
	if err != nil {
		s.logger.Warn("leaderboard cache unavailable, reading database", zap.Error(err))
		return s.fromSource(ctx, limit)
	}
	if built {
		return withFallbacks(entries), nil
	}

	all, err := s.loadAndCache(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Rebuild replaces the cached leaderboard with the database ranking
func (s *leaderboardService) Rebuild(ctx context.Context) (int, error) {
	entries, err := s.source.TopByPoints(ctx, leaderboardCacheSize)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Replace(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *leaderboardService) fromSource(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := s.source.TopByPoints(ctx, limit)
	if err != nil {
		return nil, err
	}
	return withFallbacks(entries), nil
}

func (s *leaderboardService) loadAndCache(ctx context.Context) ([]models.LeaderboardEntry, error) {
	entries, err := s.source.TopByPoints(ctx, leaderboardCacheSize)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Replace(ctx, entries); err != nil {
		s.logger.Warn("failed to rebuild leaderboard cache", zap.Error(err))
	}
	return withFallbacks(entries), nil
}

// withFallbacks numbers entries from 1 and fills the avatar initials
func withFallbacks(entries []models.LeaderboardEntry) []models.LeaderboardEntry {
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].AvatarFallback = Initials(entries[i].DisplayName)
		if strings.TrimSpace(entries[i].DisplayName) == "" {
			entries[i].DisplayName = anonymousDisplayName
		}
	}
	return entries
}

// Initials returns the avatar fallback of a display name: first letters of the
// first and last words, the first two letters of a single word, "LR" for no name
// and "??" when nothing usable is left.
func Initials(name string) string {
	if name == "" {
		return emptyNameInitials
	}
	words := strings.Fields(name)
	switch {
	case len(words) == 0:
		return unknownInitials
	case len(words) > 1:
		first := []rune(words[0])[0]
		last := []rune(words[len(words)-1])[0]
		return strings.ToUpper(string([]rune{first, last}))
	}
	word := []rune(words[0])
	if len(word) < 2 {
		return unknownInitials
	}
	return strings.ToUpper(string(word[:2]))
}
