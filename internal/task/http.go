package task

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studiorevonza/Task.One-sub000/internal/auth"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

// Notifier fans task lifecycle events out to connected clients.
// Delivery is fire-and-forget.
type Notifier interface {
	Broadcast(kind string, payload any)
}

// Recorder appends to the activity log.
type Recorder interface {
	Record(event string, meta map[string]any)
}

type Handler struct {
	repo   Repo
	notify Notifier
	record Recorder
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) SetNotifier(n Notifier) { h.notify = n }
func (h *Handler) SetRecorder(r Recorder) { h.record = r }

func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/tasks", h.list)
	g.POST("/tasks", h.create)
	g.GET("/tasks/:id", h.get)
	g.PATCH("/tasks/:id", h.update)
	g.DELETE("/tasks/:id", h.delete)
	g.PUT("/tasks/:id/status", h.setStatus)
	g.POST("/tasks/:id/toggle", h.toggle)
	g.POST("/tasks/:id/reminder", h.cycleReminder)
	g.GET("/tasks/:id/blocking", h.blocking)
	g.POST("/tasks/:id/dependencies", h.addDependency)
	g.DELETE("/tasks/:id/dependencies/:dep", h.removeDependency)
}

func (h *Handler) broadcast(kind string, payload any) {
	if h.notify != nil {
		h.notify.Broadcast(kind, payload)
	}
}

func (h *Handler) audit(event string, meta map[string]any) {
	if h.record != nil {
		h.record.Record(event, meta)
	}
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSelfDependency),
		errors.Is(err, ErrDependencyCycle),
		errors.Is(err, ErrBadTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortErr(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errStatus(err), gin.H{"error": err.Error()})
}

type upsertRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Priority        string   `json:"priority"`
	Category        string   `json:"category"`
	DueDate         string   `json:"dueDate"`
	DueTime         string   `json:"dueTime"`
	ProjectID       string   `json:"projectId"`
	ReminderMinutes int      `json:"reminderMinutes"`
	Dependencies    []string `json:"dependencies"`
}

func (h *Handler) list(c *gin.Context) {
	tasks, err := h.repo.List(c.Request.Context(), ListFilter{
		ProjectID: c.Query("project"),
	})
	if err != nil {
		abortErr(c, err)
		return
	}

	sortKey := SortKey(strings.ToLower(c.DefaultQuery("sort", string(SortCreated))))
	dir := Asc
	if strings.EqualFold(c.Query("dir"), string(Desc)) {
		dir = Desc
	}

	out := ProcessTasks(tasks, Filters{
		Query:    c.Query("q"),
		Status:   c.DefaultQuery("status", FilterAll),
		Category: c.DefaultQuery("category", FilterAll),
	}, Sort{Key: sortKey, Dir: dir})

	c.JSON(http.StatusOK, out)
}

func (h *Handler) create(c *gin.Context) {
	var in upsertRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	priority := model.PriorityMedium
	if in.Priority != "" {
		p, ok := model.ParsePriority(in.Priority)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown priority"})
			return
		}
		priority = p
	}
	if in.ReminderMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reminderMinutes must be >= 0"})
		return
	}

	deps := make([]model.TaskID, 0, len(in.Dependencies))
	for _, d := range in.Dependencies {
		if s := strings.TrimSpace(d); s != "" {
			deps = append(deps, model.TaskID(s))
		}
	}

	t, err := h.repo.Create(c.Request.Context(), model.Task{
		Title:           in.Title,
		Description:     in.Description,
		Status:          model.StatusTodo,
		Priority:        priority,
		Category:        in.Category,
		DueDate:         in.DueDate,
		DueTime:         in.DueTime,
		ProjectID:       in.ProjectID,
		ReminderMinutes: in.ReminderMinutes,
		Dependencies:    deps,
	})
	if err != nil {
		abortErr(c, err)
		return
	}

	h.audit("task_created", map[string]any{"task_id": string(t.ID), "title": t.Title})
	h.broadcast("task_created", t)
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) get(c *gin.Context) {
	t, err := h.repo.Get(c.Request.Context(), model.TaskID(c.Param("id")))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) update(c *gin.Context) {
	var p Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}
	if p.Priority != nil {
		if _, ok := model.ParsePriority(string(*p.Priority)); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown priority"})
			return
		}
	}
	if p.ReminderMinutes != nil && *p.ReminderMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reminderMinutes must be >= 0"})
		return
	}

	t, err := h.repo.Update(c.Request.Context(), model.TaskID(c.Param("id")), p)
	if err != nil {
		abortErr(c, err)
		return
	}
	h.broadcast("task_updated", t)
	c.JSON(http.StatusOK, t)
}

func (h *Handler) delete(c *gin.Context) {
	id := model.TaskID(c.Param("id"))
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		abortErr(c, err)
		return
	}
	h.audit("task_deleted", map[string]any{"task_id": string(id)})
	h.broadcast("task_deleted", gin.H{"id": id})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) setStatus(c *gin.Context) {
	var in struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}
	to, ok := model.ParseStatus(in.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	t, err := h.repo.SetStatus(c.Request.Context(), model.TaskID(c.Param("id")), to, userID(c))
	if err != nil {
		abortErr(c, err)
		return
	}
	h.audit("status_changed", map[string]any{"task_id": string(t.ID), "to": string(to)})
	if to == model.StatusDone {
		h.audit("task_completed", map[string]any{"task_id": string(t.ID)})
	}
	h.broadcast("task_updated", t)
	c.JSON(http.StatusOK, t)
}

func (h *Handler) toggle(c *gin.Context) {
	t, err := h.repo.Toggle(c.Request.Context(), model.TaskID(c.Param("id")), userID(c))
	if err != nil {
		abortErr(c, err)
		return
	}
	h.audit("status_changed", map[string]any{"task_id": string(t.ID), "to": string(t.Status)})
	if t.Status == model.StatusDone {
		h.audit("task_completed", map[string]any{"task_id": string(t.ID)})
	}
	h.broadcast("task_updated", t)
	c.JSON(http.StatusOK, t)
}

func (h *Handler) cycleReminder(c *gin.Context) {
	t, err := h.repo.CycleReminder(c.Request.Context(), model.TaskID(c.Param("id")))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) blocking(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.repo.Get(ctx, model.TaskID(c.Param("id")))
	if err != nil {
		abortErr(c, err)
		return
	}
	all, err := h.repo.List(ctx, ListFilter{})
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, Blocking(t, all))
}

func (h *Handler) addDependency(c *gin.Context) {
	var in struct {
		DependsOn string `json:"dependsOn"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.DependsOn) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": `missing field "dependsOn"`})
		return
	}

	t, err := h.repo.AddDependency(c.Request.Context(), model.TaskID(c.Param("id")), model.TaskID(in.DependsOn))
	if err != nil {
		abortErr(c, err)
		return
	}
	h.broadcast("task_updated", t)
	c.JSON(http.StatusOK, t)
}

func (h *Handler) removeDependency(c *gin.Context) {
	t, err := h.repo.RemoveDependency(c.Request.Context(), model.TaskID(c.Param("id")), model.TaskID(c.Param("dep")))
	if err != nil {
		abortErr(c, err)
		return
	}
	h.broadcast("task_updated", t)
	c.JSON(http.StatusOK, t)
}

func userID(c *gin.Context) string {
	u, ok := auth.UserFromContext(c.Request.Context())
	if !ok {
		return ""
	}
	return u.ID
}
