package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sharedconfig "github.com/stake-plus/gemtracker/src/config"
	sharedtracking "github.com/stake-plus/gemtracker/src/shared/tracking"
	"gorm.io/gorm"
)

// NewRouter builds the gin engine with every route attached.
func NewRouter(cfg sharedconfig.APIConfig, db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), RequestID())
	attachRoutes(r, cfg, db)
	return r
}

func attachRoutes(r *gin.Engine, cfg sharedconfig.APIConfig, db *gorm.DB) {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	h := &Handlers{
		DB:        db,
		Watchlist: sharedtracking.NewWatchlistManager(db),
		Proposals: sharedtracking.NewProposalManager(db),
	}

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	{
		v1.GET("/scopes", h.Scopes)
		v1.GET("/scopes/:scope/tracked", h.Tracked)
		v1.GET("/proposals", h.ListProposals)
	}
}
