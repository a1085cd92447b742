package handler_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"strings"
	"testing"
)

func TestShowPosterEmbedsQRCode(t *testing.T) {
	r, _ := setupServer(t, "")

	w := get(r, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "data:image/png;base64,") {
		t.Fatal("expected poster page to embed a qr data uri")
	}
	if !strings.Contains(body, "1000") {
		t.Fatal("expected poster page to show the current token")
	}

	// 展示设备应拿到长期访客 cookie
	found := false
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "kg_visitor_id" && cookie.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected visitor cookie on poster page")
	}
}

func TestPosterJSONTriple(t *testing.T) {
	r, _ := setupServer(t, "")

	w := get(r, "/poster.json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload struct {
		Token int64  `json:"token"`
		URL   string `json:"url"`
		QR    string `json:"qr"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode poster json: %v", err)
	}

	if payload.Token != 1000 {
		t.Fatalf("expected seed token 1000, got %d", payload.Token)
	}
	if payload.URL != "https://kiosk.example.com/s/1000" {
		t.Fatalf("unexpected scan url: %s", payload.URL)
	}

	raw, err := base64.StdEncoding.DecodeString(payload.QR)
	if err != nil {
		t.Fatalf("qr payload is not valid base64: %v", err)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(raw)); err != nil {
		t.Fatalf("qr payload is not a png: %v", err)
	}
}

func TestQRImageHonorsSizeQuery(t *testing.T) {
	r, _ := setupServer(t, "")

	w := get(r, "/qr.png?size=128")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a png: %v", err)
	}
	if cfg.Width != 128 || cfg.Height != 128 {
		t.Fatalf("expected 128px square, got %dx%d", cfg.Width, cfg.Height)
	}
}
