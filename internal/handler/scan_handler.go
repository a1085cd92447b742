package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kioskgate/internal/service"
)

// HandleScan 处理扫码落地请求。
//
// 流程：校验令牌 → 记录扫码 → 核销 → 首次核销跳转游戏，
// 重复扫码返回 410 已使用页。两种结果都禁止缓存。
func (a *API) HandleScan(c *gin.Context) {
	noStore(c)

	token, err := service.ParseToken(c.Param("token"))
	if err != nil {
		// 非法令牌在任何状态落库之前拒绝，不产生计数
		c.String(http.StatusBadRequest, "invalid token")
		scanOutcomes.WithLabelValues("invalid").Inc()
		return
	}

	if err := a.metrics.RecordScan(); err != nil {
		respondError(c, http.StatusInternalServerError, "storage unavailable")
		return
	}

	firstUse, err := a.tokens.Consume(token, a.metrics.Now())
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			c.String(http.StatusBadRequest, "invalid token")
			return
		}
		respondError(c, http.StatusInternalServerError, "storage unavailable")
		return
	}

	if !firstUse {
		if err := a.metrics.RecordRevisit(); err != nil {
			respondError(c, http.StatusInternalServerError, "storage unavailable")
			return
		}
		scanOutcomes.WithLabelValues("revisit").Inc()

		data := gin.H{"token": token}
		if consumedAt, ok, err := a.tokens.ConsumedAt(token); err == nil && ok {
			data["consumedAt"] = a.metrics.Localize(consumedAt).Format("2006-01-02 15:04:05")
		}
		c.HTML(http.StatusGone, "used.html", data)
		return
	}

	if err := a.metrics.RecordUniqueScan(); err != nil {
		respondError(c, http.StatusInternalServerError, "storage unavailable")
		return
	}

	if err := a.tokens.AdvanceIfCurrent(token); err != nil {
		respondError(c, http.StatusInternalServerError, "storage unavailable")
		return
	}

	if err := a.metrics.RecordRedirect(); err != nil {
		respondError(c, http.StatusInternalServerError, "storage unavailable")
		return
	}
	scanOutcomes.WithLabelValues("redirect").Inc()

	c.Redirect(http.StatusFound, a.tokens.GameRedirectURL(token))
}
