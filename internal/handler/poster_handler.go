package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	visitorCookieName   = "kg_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

// ensureVisitorID 为展示设备分配长期 cookie，便于在访问日志中
// 区分不同的自助机屏幕。
func ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil && strings.TrimSpace(id) != "" {
		return id
	}
	id := uuid.NewString()
	c.SetCookie(visitorCookieName, id, visitorCookieMaxAge, "/", "", false, true)
	return id
}

func parseSizeQuery(c *gin.Context) int {
	size, err := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil {
		return 0
	}
	return size
}

// ShowPoster 渲染自助机海报页，内嵌当前令牌的二维码。
func (a *API) ShowPoster(c *gin.Context) {
	ensureVisitorID(c)
	noStore(c)

	view, err := a.poster.Build(parseSizeQuery(c))
	if err != nil {
		c.HTML(http.StatusInternalServerError, "poster.html", gin.H{
			"error": "海报生成失败，请稍后重试",
		})
		return
	}

	c.HTML(http.StatusOK, "poster.html", gin.H{
		"token":   view.Token,
		"scanURL": view.ScanURL,
		"qr":      view.QRBase64,
		"notice":  view.Notice,
	})
}

// PosterJSON 以 JSON 形式暴露海报三元组，供前端轮询刷新二维码。
func (a *API) PosterJSON(c *gin.Context) {
	noStore(c)

	view, err := a.poster.Build(parseSizeQuery(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to build poster")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": view.Token,
		"url":   view.ScanURL,
		"qr":    view.QRBase64,
	})
}

// QRImage 直接输出当前令牌二维码的 PNG 图片。
func (a *API) QRImage(c *gin.Context) {
	noStore(c)

	token, err := a.tokens.Current()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to read current token")
		return
	}

	pngData, err := a.poster.QRPNG(token, parseSizeQuery(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to encode qr image")
		return
	}

	c.Data(http.StatusOK, "image/png", pngData)
}
