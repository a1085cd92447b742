package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const statsSessionKey = "stats_authorized"

// StatsAuthRequired 校验统计页的共享密钥。
//
// 未配置密钥时不做鉴权（面向展会内网的既定取舍）。密钥通过
// ?key= 提交，一次校验通过后写入会话，后续请求免密。
func (a *API) StatsAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(a.adminKeyHash) == 0 {
			c.Next()
			return
		}

		session := sessions.Default(c)
		if authorized, ok := session.Get(statsSessionKey).(bool); ok && authorized {
			c.Next()
			return
		}

		key := c.Query("key")
		if key == "" || bcrypt.CompareHashAndPassword(a.adminKeyHash, []byte(key)) != nil {
			respondError(c, http.StatusUnauthorized, "invalid admin key")
			c.Abort()
			return
		}

		session.Set(statsSessionKey, true)
		if err := session.Save(); err != nil {
			// 会话保存失败不影响本次请求，下次仍需带 key
			c.Error(err)
		}
		c.Next()
	}
}

// ShowStats 以 HTML 表格渲染按日统计。
func (a *API) ShowStats(c *gin.Context) {
	rows, err := a.metrics.Rows()
	if err != nil {
		c.HTML(http.StatusInternalServerError, "stats.html", gin.H{
			"error": "统计读取失败",
		})
		return
	}

	c.HTML(http.StatusOK, "stats.html", gin.H{
		"rows": rows,
	})
}

// StatsJSON 导出按日统计的完整快照。
func (a *API) StatsJSON(c *gin.Context) {
	snapshot, err := a.metrics.Snapshot()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to read stats")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// StatsCSV 以固定列序导出 CSV：day, qr_scans, unique_scans, redirects, revisits。
func (a *API) StatsCSV(c *gin.Context) {
	rows, err := a.metrics.Rows()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to read stats")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="kioskgate-stats.csv"`)

	w := csv.NewWriter(c.Writer)
	if err := w.Write([]string{"day", "qr_scans", "unique_scans", "redirects", "revisits"}); err != nil {
		return
	}
	for _, row := range rows {
		record := []string{
			row.Day,
			strconv.FormatUint(row.QRScans, 10),
			strconv.FormatUint(row.UniqueScans, 10),
			strconv.FormatUint(row.Redirects, 10),
			strconv.FormatUint(row.Revisits, 10),
		}
		if err := w.Write(record); err != nil {
			return
		}
	}
	w.Flush()
}

// Healthz 返回存活探针响应。
func (a *API) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
