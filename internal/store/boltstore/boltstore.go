// Package boltstore 提供基于 BoltDB 单文件的存储实现。
//
// Bolt 的写事务串行执行，check-and-set 天然原子，无需额外互斥。
package boltstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/kioskgate/internal/store"
)

var (
	bucketLedger   = []byte("ledger")
	bucketConsumed = []byte("consumed")
	bucketMetrics  = []byte("metrics")

	keyCurrentToken = []byte("current_token")
)

// Store 将指针、核销集合与按日计数保存在三个 bucket 中。
type Store struct {
	db *bolt.DB
}

var _ store.Store = (*Store)(nil)

// Open 打开（或创建）数据库文件，确保 bucket 存在并写入种子指针。
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		ledger, err := tx.CreateBucketIfNotExists(bucketLedger)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketConsumed); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMetrics); err != nil {
			return err
		}

		// 种子指针只在文件首次创建时写入
		if ledger.Get(keyCurrentToken) == nil {
			return ledger.Put(keyCurrentToken, encodeToken(store.SeedToken))
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close 释放数据库文件锁。
func (s *Store) Close() error {
	return s.db.Close()
}

// CurrentToken 返回当前滚动令牌。
func (s *Store) CurrentToken() (int64, error) {
	var token int64
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketLedger).Get(keyCurrentToken)
		if raw == nil {
			return fmt.Errorf("ledger state missing")
		}
		token = decodeToken(raw)
		return nil
	})
	return token, err
}

// ConsumeToken 在单个写事务内完成"查重 + 写入"，事务串行化保证
// 并发争用同一令牌时恰有一个调用者看到首次核销。
func (s *Store) ConsumeToken(token int64, now time.Time) (bool, error) {
	firstUse := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConsumed)
		key := encodeToken(token)
		if b.Get(key) != nil {
			return nil
		}
		firstUse = true
		return b.Put(key, []byte(now.UTC().Format(time.RFC3339Nano)))
	})
	if err != nil {
		return false, err
	}
	return firstUse, nil
}

// AdvanceIfCurrent 仅当 token 等于当前指针时推进到 token+1。
func (s *Store) AdvanceIfCurrent(token int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLedger)
		raw := b.Get(keyCurrentToken)
		if raw == nil {
			return fmt.Errorf("ledger state missing")
		}
		if decodeToken(raw) != token {
			return nil
		}
		return b.Put(keyCurrentToken, encodeToken(token+1))
	})
}

// ConsumedAt 返回令牌首次核销时间。
func (s *Store) ConsumedAt(token int64) (time.Time, bool, error) {
	var (
		consumedAt time.Time
		found      bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketConsumed).Get(encodeToken(token))
		if raw == nil {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, string(raw))
		if err != nil {
			return err
		}
		consumedAt = parsed
		found = true
		return nil
	})
	return consumedAt, found, err
}

// IncrementCounter 在写事务内读出当天记录、加一后写回，
// 当天不存在时以全零创建。
func (s *Store) IncrementCounter(day, counter string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMetrics)

		var counters store.DayCounters
		if raw := b.Get([]byte(day)); raw != nil {
			if err := json.Unmarshal(raw, &counters); err != nil {
				return err
			}
		}

		switch counter {
		case store.CounterQRScans:
			counters.QRScans++
		case store.CounterUniqueScans:
			counters.UniqueScans++
		case store.CounterRedirects:
			counters.Redirects++
		case store.CounterRevisits:
			counters.Revisits++
		default:
			return fmt.Errorf("unknown counter %q", counter)
		}

		data, err := json.Marshal(counters)
		if err != nil {
			return err
		}
		return b.Put([]byte(day), data)
	})
}

// Snapshot 返回全量按日计数。
func (s *Store) Snapshot() (map[string]store.DayCounters, error) {
	result := make(map[string]store.DayCounters)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMetrics).ForEach(func(k, v []byte) error {
			var counters store.DayCounters
			if err := json.Unmarshal(v, &counters); err != nil {
				return err
			}
			result[string(k)] = counters
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Rows 返回按日键升序的计数行。
func (s *Store) Rows() ([]store.DayRow, error) {
	snapshot, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	days := make([]string, 0, len(snapshot))
	for day := range snapshot {
		days = append(days, day)
	}
	sort.Strings(days)

	rows := make([]store.DayRow, 0, len(days))
	for _, day := range days {
		c := snapshot[day]
		rows = append(rows, store.DayRow{
			Day:         day,
			QRScans:     c.QRScans,
			UniqueScans: c.UniqueScans,
			Redirects:   c.Redirects,
			Revisits:    c.Revisits,
		})
	}
	return rows, nil
}

func encodeToken(token int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(token))
	return buf
}

func decodeToken(raw []byte) int64 {
	return int64(binary.BigEndian.Uint64(raw))
}
