package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/gemtracker/src/actions/core"
	sharedconfig "github.com/stake-plus/gemtracker/src/config"
	"gorm.io/gorm"
)

var _ core.Module = (*Module)(nil)

const shutdownTimeout = 10 * time.Second

// Module serves the read-only HTTP API.
type Module struct {
	config sharedconfig.APIConfig
	server *http.Server
	done   chan struct{}
}

func NewModule(cfg sharedconfig.APIConfig, db *gorm.DB) (*Module, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("api: api_jwt_secret must be set when the API is enabled")
	}

	gin.SetMode(gin.ReleaseMode)
	return &Module{
		config: cfg,
		server: &http.Server{
			Addr:              cfg.Listen,
			Handler:           NewRouter(cfg, db),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Name implements actions.Module.
func (m *Module) Name() string { return "api" }

func (m *Module) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return fmt.Errorf("api: listen on %s: %w", m.server.Addr, err)
	}

	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("api: server stopped: %v", err)
		}
	}()
	log.Printf("api: listening on %s", ln.Addr())
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	if m.done == nil {
		return
	}
	shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := m.server.Shutdown(shutCtx); err != nil {
		log.Printf("api: shutdown: %v", err)
	}
	<-m.done
	m.done = nil
}
