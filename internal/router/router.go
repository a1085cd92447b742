package router

import (
	"html/template"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/kioskgate/internal/config"
	"github.com/kioskgate/internal/handler"
	webtemplate "github.com/kioskgate/web/template"
)

// Setup 配置 Gin 引擎和路由。
func Setup(api *handler.API, cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件，统计页密钥校验通过后写入会话
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("kioskgate_session", store))
	r.Use(handler.RequestMetrics())

	// 模板随二进制一起发布
	tmpl := template.Must(template.ParseFS(webtemplate.FS, "*.html"))
	r.SetHTMLTemplate(tmpl)

	// 海报与扫码落地
	r.GET("/", api.ShowPoster)
	r.GET("/poster.json", api.PosterJSON)
	r.GET("/qr.png", api.QRImage)
	r.GET("/s/:token", api.HandleScan)

	// 只读统计导出
	stats := r.Group("", api.StatsAuthRequired())
	{
		stats.GET("/stats", api.ShowStats)
		stats.GET("/stats.json", api.StatsJSON)
		stats.GET("/stats.csv", api.StatsCSV)
	}

	r.GET("/healthz", api.Healthz)
	r.GET("/metrics", handler.PrometheusHandler())

	return r
}
