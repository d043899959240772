package suggest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studiorevonza/Task.One-sub000/internal/task"
)

type Recorder interface {
	Record(event string, meta map[string]any)
}

type Handler struct {
	suggester Suggester
	tasks     task.Repo
	record    Recorder
}

func NewHandler(suggester Suggester, tasks task.Repo) *Handler {
	return &Handler{suggester: suggester, tasks: tasks}
}

func (h *Handler) SetRecorder(r Recorder) { h.record = r }

func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/suggest", h.suggest)
}

type suggestRequest struct {
	Prompt    string `json:"prompt"`
	ProjectID string `json:"projectId"`
}

func (h *Handler) suggest(c *gin.Context) {
	if h.suggester == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrNotConfigured.Error()})
		return
	}
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), task.ListFilter{ProjectID: req.ProjectID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	suggestions, err := h.suggester.Suggest(c.Request.Context(), tasks, req.Prompt)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if h.record != nil {
		h.record.Record("suggestion_served", map[string]any{"count": len(suggestions)})
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
