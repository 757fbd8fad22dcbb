package tools

import "context"

// CacheStats reports the document cache's counters and hit ratio.
func (s *Service) CacheStats(ctx context.Context, args map[string]any) (any, error) {
	if s.cache == nil {
		return map[string]any{"enabled": false}, nil
	}
	stats := s.cache.Stats()
	return map[string]any{
		"enabled":   true,
		"size":      stats.Size,
		"maxSize":   stats.MaxSize,
		"hitCount":  stats.Hits,
		"missCount": stats.Misses,
		"hitRatio":  stats.HitRatio,
	}, nil
}

// ClearCache drops all cached documents and resets the counters.
func (s *Service) ClearCache(ctx context.Context, args map[string]any) (any, error) {
	if s.cache == nil {
		return map[string]any{"enabled": false, "cleared": false}, nil
	}
	s.cache.Clear()
	return map[string]any{"enabled": true, "cleared": true}, nil
}
