package store

import "time"

// 计数器名称，对应每日统计表中的四个字段。
const (
	CounterQRScans     = "qr_scans"
	CounterUniqueScans = "unique_scans"
	CounterRedirects   = "redirects"
	CounterRevisits    = "revisits"
)

// SeedToken 是空存储初始化时滚动令牌的起始值。
const SeedToken int64 = 1000

// DayCounters 汇总某一天的四项计数。
type DayCounters struct {
	QRScans     uint64 `json:"qr_scans"`
	UniqueScans uint64 `json:"unique_scans"`
	Redirects   uint64 `json:"redirects"`
	Revisits    uint64 `json:"revisits"`
}

// DayRow 是按日导出时的一行，Day 为固定时区下的 YYYY-MM-DD。
type DayRow struct {
	Day         string `json:"day"`
	QRScans     uint64 `json:"qr_scans"`
	UniqueScans uint64 `json:"unique_scans"`
	Redirects   uint64 `json:"redirects"`
	Revisits    uint64 `json:"revisits"`
}

// Ledger 维护滚动令牌指针与已核销令牌集合。
type Ledger interface {
	// CurrentToken 返回海报当前展示的令牌，无副作用。
	CurrentToken() (int64, error)

	// ConsumeToken 尝试将令牌标记为已核销。仅在"未核销 → 已核销"
	// 的首次转换时返回 true；并发争用同一令牌时恰有一个调用者胜出。
	ConsumeToken(token int64, now time.Time) (bool, error)

	// AdvanceIfCurrent 仅当 token 等于当前指针时原子地推进到 token+1，
	// 过期令牌不会回退或推进指针。
	AdvanceIfCurrent(token int64) error

	// ConsumedAt 返回令牌首次核销的时间，未核销时 ok 为 false。
	ConsumedAt(token int64) (time.Time, bool, error)
}

// Metrics 维护按日累加的使用计数。
type Metrics interface {
	// IncrementCounter 将指定日期的指定计数器原子地加一，
	// 当天记录不存在时以全零创建。
	IncrementCounter(day, counter string) error

	// Snapshot 返回按日键索引的全量计数，供 JSON 导出。
	Snapshot() (map[string]DayCounters, error)

	// Rows 返回按日键升序排列的计数行，供表格与 CSV 导出。
	Rows() ([]DayRow, error)
}

// Store 是请求层依赖的完整存储能力，启动时选定一种实现后不再切换。
type Store interface {
	Ledger
	Metrics
	Close() error
}
