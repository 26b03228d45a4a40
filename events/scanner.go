package events

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/youxinddd/dappctl/logging"
)

// Backend is the node surface event scanning needs.
type Backend interface {
	ethereum.LogFilterer
	ethereum.BlockNumberReader
}

// Scanner runs a filter over block ranges. Ranges ending at least finality
// blocks behind the head are served from and stored in the cache.
type Scanner struct {
	backend  Backend
	cache    *Cache
	finality uint64
	logger   *log.Logger
}

// NewScanner creates a scanner. cache may be nil.
func NewScanner(backend Backend, cache *Cache, finality uint64, logger *log.Logger) *Scanner {
	return &Scanner{
		backend:  backend,
		cache:    cache,
		finality: finality,
		logger:   logging.Child(logger, "events"),
	}
}

// Latest returns the current head block.
func (s *Scanner) Latest(ctx context.Context) (uint64, error) {
	n, err := s.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return n, nil
}

// Scan returns the decoded logs of f in ranges, oldest first.
func (s *Scanner) Scan(ctx context.Context, f Filter, ranges []Range) ([]Record, error) {
	var latest uint64
	if s.cache != nil {
		var err error
		if latest, err = s.Latest(ctx); err != nil {
			return nil, err
		}
	}

	var records []Record
	for _, r := range ranges {
		logs, err := s.fetch(ctx, f, r, latest)
		if err != nil {
			return nil, err
		}

		for _, l := range logs {
			if l.Removed {
				continue
			}
			rec, err := Decode(f.Event, l)
			if err != nil {
				s.logger.Warn("skipping undecodable log", "tx", l.TxHash.Hex(), "error", err)
				continue
			}
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Block != records[j].Block {
			return records[i].Block < records[j].Block
		}
		return records[i].Index < records[j].Index
	})
	return records, nil
}

func (s *Scanner) fetch(ctx context.Context, f Filter, r Range, latest uint64) ([]types.Log, error) {
	q, err := f.Query(r.From, r.To)
	if err != nil {
		return nil, err
	}

	cacheable := s.cache != nil && r.To+s.finality <= latest
	key := CacheKey(q)
	if cacheable {
		logs, ok, err := s.cache.Get(key)
		if err != nil {
			s.logger.Warn("event cache unusable", "error", err)
		} else if ok {
			s.logger.Debug("cache hit", "event", f.Event.Name, "range", r, "logs", len(logs))
			return logs, nil
		}
	}

	s.logger.Debug("filtering logs", "event", f.Event.Name, "range", r)
	logs, err := s.backend.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to filter %s logs in %s: %w", f.Event.Name, r, err)
	}

	if cacheable {
		if err := s.cache.Put(key, logs); err != nil {
			s.logger.Warn("event cache write failed", "error", err)
		}
	}
	return logs, nil
}
