package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.etcd.io/bbolt"
)

var logsBucket = []byte("logs")

// Cache stores FilterLogs results of finalized block ranges.
type Cache struct {
	db *bbolt.DB
}

func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open event cache %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(logsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init event cache: %w", err)
	}

	return &Cache{db: db}, nil
}

// CacheKey identifies a query by address, topics and block range.
func CacheKey(q ethereum.FilterQuery) string {
	var sb strings.Builder
	for _, a := range q.Addresses {
		sb.WriteString(a.Hex())
	}
	sb.WriteByte('|')
	for _, slot := range q.Topics {
		for _, t := range slot {
			sb.WriteString(t.Hex())
		}
		sb.WriteByte(';')
	}
	digest := TextHash(sb.String())
	return fmt.Sprintf("%s/%020d-%020d", digest.Hex(), q.FromBlock.Uint64(), q.ToBlock.Uint64())
}

func (c *Cache) Get(key string) ([]types.Log, bool, error) {
	var raw []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(logsBucket).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("event cache read: %w", err)
	}
	if raw == nil {
		return nil, false, nil
	}

	var logs []types.Log
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, false, fmt.Errorf("event cache decode %s: %w", key, err)
	}
	return logs, true, nil
}

func (c *Cache) Put(key string, logs []types.Log) error {
	if logs == nil {
		logs = []types.Log{}
	}
	raw, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("event cache encode: %w", err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(logsBucket).Put([]byte(key), raw)
	})
}

func (c *Cache) Close() error {
	return c.db.Close()
}
