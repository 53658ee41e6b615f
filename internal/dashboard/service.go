package dashboard

import (
	"context"

	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Summary returns the dashboard rollup, served from cache when warm.
// Concurrent cold-cache requests collapse into a single database pass.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "summary")
	if err != nil {
		return nil, err
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		var summary Summary
		if err := s.cache.FetchJSON(ctx, key, &summary, s.load); err != nil {
			return nil, err
		}
		return &summary, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Summary), nil
}

func (s *Service) load(ctx context.Context) (interface{}, error) {
	summary := Summary{}

	var err error
	if summary.CustomerCount, err = s.repo.CustomerCount(ctx); err != nil {
		return nil, err
	}
	if summary.EstimateCounts, err = s.repo.EstimateCounts(ctx); err != nil {
		return nil, err
	}
	if summary.InvoiceCounts, err = s.repo.InvoiceCounts(ctx); err != nil {
		return nil, err
	}
	if summary.OutstandingTotal, summary.OverdueTotal, err = s.repo.OutstandingTotals(ctx); err != nil {
		return nil, err
	}
	if summary.Aging, err = s.repo.Aging(ctx); err != nil {
		return nil, err
	}
	return summary, nil
}
