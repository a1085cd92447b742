package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kioskgate/internal/store"
)

func TestStatsRequireAdminKey(t *testing.T) {
	r, _ := setupServer(t, "sekrit")

	if w := get(r, "/stats.json"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}
	if w := get(r, "/stats.json?key=wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", w.Code)
	}

	w := get(r, "/stats.json?key=sekrit")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with correct key, got %d", w.Code)
	}

	// 密钥校验通过后写入会话，后续请求免密
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie after successful auth")
	}

	req := httptest.NewRequest(http.MethodGet, "/stats.json", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 with session cookie, got %d", w2.Code)
	}
}

func TestStatsOpenWhenNoKeyConfigured(t *testing.T) {
	r, _ := setupServer(t, "")

	if w := get(r, "/stats"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 without configured key, got %d", w.Code)
	}
}

func TestStatsJSONRoundTrip(t *testing.T) {
	r, st := setupServer(t, "")

	if err := st.IncrementCounter("2024-05-01", store.CounterQRScans); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := st.IncrementCounter("2024-05-01", store.CounterQRScans); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := st.IncrementCounter("2024-05-02", store.CounterRevisits); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	w := get(r, "/stats.json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var snapshot map[string]store.DayCounters
	if err := json.Unmarshal(w.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("failed to decode stats json: %v", err)
	}
	if snapshot["2024-05-01"].QRScans != 2 {
		t.Fatalf("unexpected qr_scans for 2024-05-01: %+v", snapshot["2024-05-01"])
	}
	if snapshot["2024-05-02"].Revisits != 1 {
		t.Fatalf("unexpected revisits for 2024-05-02: %+v", snapshot["2024-05-02"])
	}
}

func TestStatsCSVColumnOrder(t *testing.T) {
	r, st := setupServer(t, "")

	if err := st.IncrementCounter("2024-05-02", store.CounterRedirects); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := st.IncrementCounter("2024-05-01", store.CounterUniqueScans); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	w := get(r, "/stats.csv")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "day,qr_scans,unique_scans,redirects,revisits" {
		t.Fatalf("unexpected csv header: %q", lines[0])
	}
	if lines[1] != "2024-05-01,0,1,0,0" {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	if lines[2] != "2024-05-02,0,0,1,0" {
		t.Fatalf("unexpected second row: %q", lines[2])
	}
}

func TestHealthz(t *testing.T) {
	r, _ := setupServer(t, "")

	w := get(r, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
