package service

import (
	"time"

	"github.com/kioskgate/internal/store"
)

// MetricsService 负责按固定时区的日历日累加使用计数。
//
// 日界线以自助机所在地的时区为准，而不是服务器本地时区或 UTC。
type MetricsService struct {
	metrics store.Metrics
	loc     *time.Location
	nowFunc func() time.Time
}

// NewMetricsService 创建 MetricsService，timezone 必须是合法的 IANA 时区名。
func NewMetricsService(metrics store.Metrics, timezone string) (*MetricsService, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &MetricsService{metrics: metrics, loc: loc, nowFunc: time.Now}, nil
}

// WithNow 允许测试注入固定时钟。
func (s *MetricsService) WithNow(now func() time.Time) *MetricsService {
	if now != nil {
		s.nowFunc = now
	}
	return s
}

// DayKey 把时间点映射到固定时区下的 YYYY-MM-DD 日键。
func (s *MetricsService) DayKey(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}

// Now 返回服务时钟的当前时间。
func (s *MetricsService) Now() time.Time {
	return s.nowFunc()
}

// Localize 把时间点换算到自助机所在时区，用于页面展示。
func (s *MetricsService) Localize(t time.Time) time.Time {
	return t.In(s.loc)
}

// RecordScan 累加当日的扫码总数。
func (s *MetricsService) RecordScan() error {
	return s.increment(store.CounterQRScans)
}

// RecordUniqueScan 累加当日的首次扫码数。
func (s *MetricsService) RecordUniqueScan() error {
	return s.increment(store.CounterUniqueScans)
}

// RecordRedirect 累加当日的跳转数。
func (s *MetricsService) RecordRedirect() error {
	return s.increment(store.CounterRedirects)
}

// RecordRevisit 累加当日的重复扫码数。
func (s *MetricsService) RecordRevisit() error {
	return s.increment(store.CounterRevisits)
}

func (s *MetricsService) increment(counter string) error {
	return s.metrics.IncrementCounter(s.DayKey(s.nowFunc()), counter)
}

// Snapshot 返回按日键索引的全量计数。
func (s *MetricsService) Snapshot() (map[string]store.DayCounters, error) {
	return s.metrics.Snapshot()
}

// Rows 返回按日键升序的计数行。
func (s *MetricsService) Rows() ([]store.DayRow, error) {
	return s.metrics.Rows()
}
