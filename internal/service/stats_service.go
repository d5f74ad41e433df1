package service

import (
	"context"

	"UFresher/internal/repository/mysql"

	"go.uber.org/zap"
)

type StatsService struct {
	repo  StatsStore
	cache StatsCacheStore
}

func NewStatsService(repo StatsStore, cache StatsCacheStore) *StatsService {
	return &StatsService{repo: repo, cache: cache}
}

// UserStats 先读缓存，未命中时聚合查询并回填
func (s *StatsService) UserStats(ctx context.Context, userID uint64) (*mysql.UserStats, error) {
	var cached mysql.UserStats
	if hit, err := s.cache.Get(ctx, userID, &cached); err != nil {
		zap.L().Warn("read stats cache failed", zap.Uint64("user_id", userID), zap.Error(err))
	} else if hit {
		return &cached, nil
	}
	stats, err := s.repo.UserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err = s.cache.Set(ctx, userID, stats); err != nil {
		zap.L().Warn("write stats cache failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
	return stats, nil
}

func (s *StatsService) AdminStats(ctx context.Context) (*mysql.AdminStats, error) {
	return s.repo.AdminStats(ctx)
}
