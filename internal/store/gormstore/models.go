package gormstore

import "time"

// LedgerState 保存滚动令牌指针，整表只有一行。
type LedgerState struct {
	ID           uint  `gorm:"primaryKey"`
	CurrentToken int64 `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 指定自定义表名。
func (LedgerState) TableName() string {
	return "ledger_states"
}

// ConsumedToken 记录已核销的令牌及首次核销时间，条目永不删除。
type ConsumedToken struct {
	ID         uint  `gorm:"primaryKey"`
	Token      int64 `gorm:"uniqueIndex"`
	ConsumedAt time.Time
	CreatedAt  time.Time
}

// TableName 指定自定义表名。
func (ConsumedToken) TableName() string {
	return "consumed_tokens"
}

// DailyMetric 汇总固定时区下单个日历日的使用计数。
type DailyMetric struct {
	ID          uint   `gorm:"primaryKey"`
	Day         string `gorm:"size:10;uniqueIndex"`
	QRScans     uint64 `gorm:"column:qr_scans;default:0"`
	UniqueScans uint64 `gorm:"column:unique_scans;default:0"`
	Redirects   uint64 `gorm:"column:redirects;default:0"`
	Revisits    uint64 `gorm:"column:revisits;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (DailyMetric) TableName() string {
	return "daily_metrics"
}
