package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"image/png"

	"github.com/microcosm-cc/bluemonday"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/image/draw"

	"github.com/kioskgate/internal/store"
)

const (
	defaultQRSize = 320
	maxQRSize     = 1024
)

var (
	noticeEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(htmlrenderer.WithHardWraps()),
	)
	noticeSanitizer = bluemonday.UGCPolicy()
)

// PosterView 封装海报页与轮询接口需要的展示数据。
type PosterView struct {
	Token    int64
	ScanURL  string
	QRBase64 string
	Notice   template.HTML
}

// PosterService 负责生成海报展示的令牌链接与二维码图片。
type PosterService struct {
	ledger  store.Ledger
	baseURL string
	notice  template.HTML
}

// NewPosterService 创建 PosterService，notice 为可选的 Markdown 公告，
// 渲染后的 HTML 会经过白名单净化。
func NewPosterService(ledger store.Ledger, baseURL, notice string) *PosterService {
	return &PosterService{
		ledger:  ledger,
		baseURL: baseURL,
		notice:  renderNotice(notice),
	}
}

func renderNotice(markdown string) template.HTML {
	if markdown == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := noticeEngine.Convert([]byte(markdown), &buf); err != nil {
		return ""
	}
	return template.HTML(noticeSanitizer.SanitizeBytes(buf.Bytes()))
}

// ScanURL 返回令牌对应的扫码落地链接。
func (s *PosterService) ScanURL(token int64) string {
	return fmt.Sprintf("%s/s/%d", s.baseURL, token)
}

// QRPNG 将令牌的落地链接编码为 PNG 二维码。
//
// 先以每模块 1 像素生成最小位图，再用最近邻插值放大到目标尺寸，
// 保证任意尺寸下模块边缘锐利。
func (s *PosterService) QRPNG(token int64, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	qr, err := qrcode.New(s.ScanURL(token), qrcode.Medium)
	if err != nil {
		return nil, err
	}

	src := qr.Image(-1)
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Build 读取当前令牌并组装完整的海报视图。
func (s *PosterService) Build(size int) (PosterView, error) {
	token, err := s.ledger.CurrentToken()
	if err != nil {
		return PosterView{}, err
	}

	pngData, err := s.QRPNG(token, size)
	if err != nil {
		return PosterView{}, err
	}

	return PosterView{
		Token:    token,
		ScanURL:  s.ScanURL(token),
		QRBase64: base64.StdEncoding.EncodeToString(pngData),
		Notice:   s.notice,
	}, nil
}
