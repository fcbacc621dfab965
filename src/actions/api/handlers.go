package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	sharedtracking "github.com/stake-plus/gemtracker/src/shared/tracking"
	"gorm.io/gorm"
)

// Handlers serves read-only views of the watch-lists and open votes.
type Handlers struct {
	DB        *gorm.DB
	Watchlist *sharedtracking.WatchlistManager
	Proposals *sharedtracking.ProposalManager
}

func (h *Handlers) Health(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) Scopes(c *gin.Context) {
	scopes, err := h.Watchlist.Scopes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if scopes == nil {
		scopes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"scopes": scopes})
}

func (h *Handlers) Tracked(c *gin.Context) {
	scope := c.Param("scope")
	entries, err := h.Watchlist.Get(c.Request.Context(), scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []sharedtracking.TrackedEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"scope":   scope,
		"entries": entries,
		"max":     sharedtracking.MaxTrackedEntries,
	})
}

func (h *Handlers) ListProposals(c *gin.Context) {
	var (
		open []sharedtracking.Proposal
		err  error
	)
	if scope := c.Query("scope"); scope != "" {
		open, err = h.Proposals.ListOpenByScope(c.Request.Context(), scope)
	} else {
		open, err = h.Proposals.ListOpen(c.Request.Context())
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if open == nil {
		open = []sharedtracking.Proposal{}
	}
	c.JSON(http.StatusOK, gin.H{"proposals": open})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	if errors.Is(err, sharedtracking.ErrInvalidScope) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scope"})
		return
	}
	log.Printf("api: %s %s (request %s): %v", c.Request.Method, c.FullPath(), c.GetString("request_id"), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
