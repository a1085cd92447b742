package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/kioskgate/internal/config"
	"github.com/kioskgate/internal/handler"
	"github.com/kioskgate/internal/router"
	"github.com/kioskgate/internal/store"
	"github.com/kioskgate/internal/store/boltstore"
	"github.com/kioskgate/internal/store/gormstore"
)

func main() {
	// .env 仅在存在时加载，容器环境直接用环境变量
	_ = godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	api, err := handler.NewAPI(st, cfg)
	if err != nil {
		log.Fatalf("failed to initialize handlers: %v", err)
	}

	r := router.Setup(api, cfg)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

// openStore 根据配置选定存储实现：配置了 STORE_DSN 用关系型存储，
// 否则回退到单文件存储。运行期间不再切换。
func openStore(cfg config.AppConfig) (store.Store, error) {
	if cfg.StoreDSN != "" {
		log.Printf("using relational store at %s", cfg.StoreDSN)
		return gormstore.Open(cfg.StoreDSN)
	}
	log.Printf("using file store at %s", cfg.LedgerPath)
	return boltstore.Open(cfg.LedgerPath)
}
