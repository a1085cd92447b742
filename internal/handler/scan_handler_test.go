package handler_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kioskgate/internal/config"
	"github.com/kioskgate/internal/handler"
	"github.com/kioskgate/internal/router"
	"github.com/kioskgate/internal/store"
	"github.com/kioskgate/internal/store/gormstore"
)

var ginOnce sync.Once

func setupServer(t *testing.T, adminKey string) (*gin.Engine, store.Store) {
	t.Helper()

	ginOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})

	st, err := gormstore.Open(filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.AppConfig{
		GameURL:       "https://game.example.com/play?code={token}",
		SiteBaseURL:   "https://kiosk.example.com",
		KioskTimezone: "Asia/Shanghai",
		AdminKey:      adminKey,
		SessionSecret: "test-secret",
	}

	api, err := handler.NewAPI(st, cfg)
	if err != nil {
		t.Fatalf("failed to create api: %v", err)
	}

	return router.Setup(api, cfg), st
}

func todayInShanghai(t *testing.T) string {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	return time.Now().In(loc).Format("2006-01-02")
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestScanFlowScenario(t *testing.T) {
	r, st := setupServer(t, "")
	day := todayInShanghai(t)

	// 首次扫描种子令牌：核销成功并跳转游戏
	w := get(r, "/s/1000")
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302 on first scan, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://game.example.com/play?code=1000" {
		t.Fatalf("unexpected redirect target: %s", loc)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("scan response must not be cacheable, got %q", cc)
	}

	token, err := st.CurrentToken()
	if err != nil {
		t.Fatalf("failed to read current token: %v", err)
	}
	if token != 1001 {
		t.Fatalf("expected pointer 1001 after first scan, got %d", token)
	}

	snapshot, err := st.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	counters := snapshot[day]
	if counters.QRScans != 1 || counters.UniqueScans != 1 || counters.Redirects != 1 || counters.Revisits != 0 {
		t.Fatalf("unexpected counters after first scan: %+v", counters)
	}

	// 重复扫描同一令牌：410 已使用，指针不变
	w = get(r, "/s/1000")
	if w.Code != http.StatusGone {
		t.Fatalf("expected 410 on repeat scan, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "已经被使用") {
		t.Fatalf("expected used page body, got %q", w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("used response must not be cacheable, got %q", cc)
	}

	token, err = st.CurrentToken()
	if err != nil {
		t.Fatalf("failed to read current token: %v", err)
	}
	if token != 1001 {
		t.Fatalf("expected pointer unchanged at 1001, got %d", token)
	}

	snapshot, err = st.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	counters = snapshot[day]
	if counters.QRScans != 2 || counters.UniqueScans != 1 || counters.Redirects != 1 || counters.Revisits != 1 {
		t.Fatalf("unexpected counters after repeat scan: %+v", counters)
	}
}

func TestScanRejectsMalformedToken(t *testing.T) {
	r, st := setupServer(t, "")

	w := get(r, "/s/abc")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed token, got %d", w.Code)
	}

	// 校验失败不得留下任何计数
	snapshot, err := st.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snapshot) != 0 {
		t.Fatalf("expected no metrics after rejected scan, got %v", snapshot)
	}
}

func TestScanStaleTokenRedirectsWithoutAdvancing(t *testing.T) {
	r, st := setupServer(t, "")

	// 扫描一个从未核销、但早于当前指针的令牌
	w := get(r, "/s/5")
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302 for unconsumed stale token, got %d", w.Code)
	}

	token, err := st.CurrentToken()
	if err != nil {
		t.Fatalf("failed to read current token: %v", err)
	}
	if token != 1000 {
		t.Fatalf("stale token must not move the pointer, got %d", token)
	}
}
