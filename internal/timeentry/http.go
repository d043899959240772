package timeentry

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studiorevonza/Task.One-sub000/internal/auth"
	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

// Recorder mirrors task.Recorder so timer activity lands in the log.
type Recorder interface {
	Record(event string, meta map[string]any)
}

type Handler struct {
	repo   Repo
	clk    clock.Clock
	record Recorder
}

func NewHandler(repo Repo, clk clock.Clock) *Handler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Handler{repo: repo, clk: clk}
}

func (h *Handler) SetRecorder(r Recorder) { h.record = r }

func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/timeentries", h.list)
	g.POST("/timeentries/start", h.start)
	g.POST("/timeentries/:id/stop", h.stop)
	g.DELETE("/timeentries/:id", h.delete)
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyRunning), errors.Is(err, ErrNotRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func userID(c *gin.Context) string {
	if u, ok := auth.UserFromContext(c.Request.Context()); ok {
		return u.ID
	}
	return ""
}

// entryView adds the derived duration so clients do not recompute it.
type entryView struct {
	model.TimeEntry
	DurationSeconds float64 `json:"durationSeconds"`
	Running         bool    `json:"running"`
}

func (h *Handler) view(e model.TimeEntry) entryView {
	return entryView{
		TimeEntry:       e,
		DurationSeconds: e.Duration(h.clk.Now()).Round(time.Second).Seconds(),
		Running:         e.EndedAt == nil,
	}
}

func (h *Handler) list(c *gin.Context) {
	f := ListFilter{
		TaskID: c.Query("task"),
		UserID: c.Query("user"),
	}
	entries, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, h.view(e))
	}
	c.JSON(http.StatusOK, gin.H{"entries": views})
}

type startRequest struct {
	TaskID string `json:"taskId" binding:"required"`
	Note   string `json:"note"`
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "taskId is required"})
		return
	}
	e, err := h.repo.Start(c.Request.Context(), model.TaskID(req.TaskID), userID(c), req.Note)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	if h.record != nil {
		h.record.Record("timer_started", map[string]any{"entry_id": string(e.ID), "task_id": string(e.TaskID)})
	}
	c.JSON(http.StatusCreated, h.view(e))
}

func (h *Handler) stop(c *gin.Context) {
	e, err := h.repo.Stop(c.Request.Context(), model.TimeEntryID(c.Param("id")))
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	if h.record != nil {
		h.record.Record("timer_stopped", map[string]any{"entry_id": string(e.ID), "task_id": string(e.TaskID)})
	}
	c.JSON(http.StatusOK, h.view(e))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), model.TimeEntryID(c.Param("id"))); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
