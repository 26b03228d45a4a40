package events

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/youxinddd/dappctl/logging"
)

// Handler receives each new record. Returning an error stops the watcher.
type Handler func(Record) error

// Watcher polls for new logs; it works over plain HTTP RPC where log
// subscriptions are unavailable.
type Watcher struct {
	backend  Backend
	interval time.Duration
	// span caps the block range of one FilterLogs call
	span   uint64
	logger *log.Logger
}

// NewWatcher polls every interval. A zero span means no cap on the queried
// range.
func NewWatcher(backend Backend, interval time.Duration, span uint64, logger *log.Logger) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{backend: backend, interval: interval, span: span, logger: logging.Child(logger, "watch")}
}

// Run delivers logs of f mined after start until ctx is done. A zero start
// means the current head.
func (w *Watcher) Run(ctx context.Context, f Filter, start uint64, handler Handler) error {
	// validate the filter before polling
	if _, err := f.Topics(); err != nil {
		return err
	}

	fromBlock := start
	if fromBlock == 0 {
		latest, err := w.backend.BlockNumber(ctx)
		if err != nil {
			return err
		}
		fromBlock = latest
	}

	w.logger.Info("watching", "event", f.Event.Name, "contract", f.Address.Hex(), "from", fromBlock)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping", "last", fromBlock)
			return nil
		case <-ticker.C:
			toBlock, err := w.backend.BlockNumber(ctx)
			if err != nil {
				w.logger.Warn("error getting block number", "error", err)
				continue
			}
			if toBlock <= fromBlock {
				continue
			}

			for fromBlock < toBlock && ctx.Err() == nil {
				end := toBlock
				if w.span > 0 && end-fromBlock > w.span {
					end = fromBlock + w.span
				}
				ok, err := w.deliver(ctx, f, fromBlock+1, end, handler)
				if err != nil {
					return err
				}
				if !ok {
					// retry the same chunk on the next tick
					break
				}
				fromBlock = end
			}
		}
	}
}

// deliver hands the logs of [from, to] to handler. It reports false when the
// logs could not be fetched.
func (w *Watcher) deliver(ctx context.Context, f Filter, from, to uint64, handler Handler) (bool, error) {
	q, err := f.Query(from, to)
	if err != nil {
		return false, err
	}
	logs, err := w.backend.FilterLogs(ctx, q)
	if err != nil {
		w.logger.Warn("error filtering logs", "from", from, "to", to, "error", err)
		return false, nil
	}

	for _, l := range logs {
		if l.Removed {
			continue
		}
		rec, err := Decode(f.Event, l)
		if err != nil {
			w.logger.Warn("skipping undecodable log", "tx", l.TxHash.Hex(), "error", err)
			continue
		}
		if err := handler(rec); err != nil {
			return false, err
		}
	}
	return true, nil
}
