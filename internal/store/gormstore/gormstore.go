// Package gormstore 提供基于 gorm + sqlite 的关系型存储实现。
package gormstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kioskgate/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store 通过单条原子语句实现核销与计数，不依赖显式锁。
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open 打开（或创建）sqlite 数据库，执行自动迁移并写入种子指针。
func Open(dsn string) (*Store, error) {
	if err := ensureParentDir(dsn); err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	s := &Store{db: gdb}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&LedgerState{}, &ConsumedToken{}, &DailyMetric{}); err != nil {
		return err
	}

	// 种子指针只在首次启动时写入，之后的启动是无害的 no-op
	seed := LedgerState{ID: 1, CurrentToken: store.SeedToken}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CurrentToken 返回当前滚动令牌。
func (s *Store) CurrentToken() (int64, error) {
	var state LedgerState
	if err := s.db.First(&state, 1).Error; err != nil {
		return 0, err
	}
	return state.CurrentToken, nil
}

// ConsumeToken 以唯一索引上的冲突插入实现"首次核销恰有一个胜者"：
// RowsAffected == 1 表示本次调用完成了未核销到已核销的转换。
func (s *Store) ConsumeToken(token int64, now time.Time) (bool, error) {
	record := ConsumedToken{Token: token, ConsumedAt: now}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoNothing: true,
	}).Create(&record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AdvanceIfCurrent 用带条件的 UPDATE 推进指针，token 不等于当前值时
// 不命中任何行，指针保持不变。
func (s *Store) AdvanceIfCurrent(token int64) error {
	return s.db.Model(&LedgerState{}).
		Where("id = ? AND current_token = ?", 1, token).
		Update("current_token", token+1).Error
}

// ConsumedAt 返回令牌首次核销时间。
func (s *Store) ConsumedAt(token int64) (time.Time, bool, error) {
	var record ConsumedToken
	err := s.db.Where("token = ?", token).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return record.ConsumedAt, true, nil
}

// IncrementCounter 以 upsert-and-add 的方式累加计数：当天不存在时
// 以该计数器为 1 创建，存在时在数据库内原地加一。
func (s *Store) IncrementCounter(day, counter string) error {
	row, err := newDayRow(day, counter)
	if err != nil {
		return err
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			counter:      gorm.Expr(counter + " + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
}

func newDayRow(day, counter string) (DailyMetric, error) {
	row := DailyMetric{Day: day}
	switch counter {
	case store.CounterQRScans:
		row.QRScans = 1
	case store.CounterUniqueScans:
		row.UniqueScans = 1
	case store.CounterRedirects:
		row.Redirects = 1
	case store.CounterRevisits:
		row.Revisits = 1
	default:
		return row, fmt.Errorf("unknown counter %q", counter)
	}
	return row, nil
}

// Snapshot 返回全量按日计数。
func (s *Store) Snapshot() (map[string]store.DayCounters, error) {
	var metrics []DailyMetric
	if err := s.db.Find(&metrics).Error; err != nil {
		return nil, err
	}

	result := make(map[string]store.DayCounters, len(metrics))
	for _, m := range metrics {
		result[m.Day] = store.DayCounters{
			QRScans:     m.QRScans,
			UniqueScans: m.UniqueScans,
			Redirects:   m.Redirects,
			Revisits:    m.Revisits,
		}
	}
	return result, nil
}

// Rows 返回按日键升序的计数行。
func (s *Store) Rows() ([]store.DayRow, error) {
	var metrics []DailyMetric
	if err := s.db.Order("day ASC").Find(&metrics).Error; err != nil {
		return nil, err
	}

	rows := make([]store.DayRow, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, store.DayRow{
			Day:         m.Day,
			QRScans:     m.QRScans,
			UniqueScans: m.UniqueScans,
			Redirects:   m.Redirects,
			Revisits:    m.Revisits,
		})
	}
	return rows, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
