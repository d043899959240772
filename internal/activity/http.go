package activity

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
)

type Handler struct {
	repo Repository
	clk  clock.Clock
}

func NewHandler(repo Repository, clk clock.Clock) *Handler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Handler{repo: repo, clk: clk}
}

func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/activity", h.list)
	g.GET("/activity/stats", h.stats)
}

func (h *Handler) sinceFrom(c *gin.Context) time.Time {
	if raw := c.Query("since"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t
		}
	}
	return h.clk.Now().AddDate(0, 0, -7)
}

func typesFrom(c *gin.Context) []EventType {
	raw := c.Query("types")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	types := make([]EventType, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			types = append(types, EventType(p))
		}
	}
	return types
}

func (h *Handler) list(c *gin.Context) {
	events, err := h.repo.GetEvents(h.sinceFrom(c), typesFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) stats(c *gin.Context) {
	since := h.sinceFrom(c)
	events, err := h.repo.GetEvents(since, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	stats, err := CalculateStats(events, since, h.clk.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Recorder adapts Repository to the Record(event, meta) shape the other
// handlers take, so they do not import this package's types.
type Recorder struct {
	Repo Repository
	Log  zerolog.Logger
}

func (r Recorder) Record(event string, meta map[string]any) {
	if r.Repo == nil {
		return
	}
	if err := r.Repo.RecordEvent(EventType(event), EventMetadata(meta)); err != nil {
		r.Log.Warn().Err(err).Str("event", event).Msg("activity record failed")
	}
}
