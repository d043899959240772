package project

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
	"github.com/studiorevonza/Task.One-sub000/internal/task"
)

// Recorder mirrors task.Recorder so project changes land in the activity log.
type Recorder interface {
	Record(event string, meta map[string]any)
}

type Handler struct {
	repo   Repo
	tasks  task.Repo
	record Recorder
}

func NewHandler(repo Repo, tasks task.Repo) *Handler {
	return &Handler{repo: repo, tasks: tasks}
}

func (h *Handler) SetRecorder(r Recorder) { h.record = r }

func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/projects", h.list)
	g.POST("/projects", h.create)
	g.GET("/projects/:id", h.get)
	g.PATCH("/projects/:id", h.update)
	g.DELETE("/projects/:id", h.delete)
	g.PUT("/projects/:id/milestones/:index", h.setMilestone)
	g.PUT("/projects/:id/criteria/:index", h.setCriterion)
	g.GET("/projects/:id/tasks", h.listTasks)
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrIndexOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type upsertRequest struct {
	Name               string                      `json:"name"`
	Description        *string                     `json:"description"`
	DueDate            *string                     `json:"dueDate"`
	Milestones         *[]model.Milestone          `json:"milestones"`
	CompletionCriteria *[]model.CompletionCriterion `json:"completionCriteria"`
	Archived           *bool                       `json:"archived"`
}

func (h *Handler) list(c *gin.Context) {
	includeArchived := c.Query("archived") == "true"
	projects, err := h.repo.List(c.Request.Context(), includeArchived)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *Handler) create(c *gin.Context) {
	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	p := model.Project{Name: req.Name}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.DueDate != nil {
		p.DueDate = *req.DueDate
	}
	if req.Milestones != nil {
		p.Milestones = *req.Milestones
	}
	if req.CompletionCriteria != nil {
		p.CompletionCriteria = *req.CompletionCriteria
	}
	created, err := h.repo.Create(c.Request.Context(), p)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	if h.record != nil {
		h.record.Record("project_created", map[string]any{"projectId": string(created.ID), "name": created.Name})
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), model.ProjectID(c.Param("id")))
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) update(c *gin.Context) {
	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	patch := Patch{
		Description:        req.Description,
		DueDate:            req.DueDate,
		Milestones:         req.Milestones,
		CompletionCriteria: req.CompletionCriteria,
		Archived:           req.Archived,
	}
	if req.Name != "" {
		patch.Name = &req.Name
	}
	p, err := h.repo.Update(c.Request.Context(), model.ProjectID(c.Param("id")), patch)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) delete(c *gin.Context) {
	id := model.ProjectID(c.Param("id"))
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	if h.record != nil {
		h.record.Record("project_deleted", map[string]any{"projectId": string(id)})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type setFlagRequest struct {
	Done *bool `json:"done"`
	Met  *bool `json:"met"`
}

func (h *Handler) setMilestone(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone index"})
		return
	}
	var req setFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Done == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "done is required"})
		return
	}
	p, err := h.repo.SetMilestoneDone(c.Request.Context(), model.ProjectID(c.Param("id")), index, *req.Done)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) setCriterion(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid criterion index"})
		return
	}
	var req setFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Met == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "met is required"})
		return
	}
	p, err := h.repo.SetCriterionMet(c.Request.Context(), model.ProjectID(c.Param("id")), index, *req.Met)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) listTasks(c *gin.Context) {
	id := model.ProjectID(c.Param("id"))
	if _, err := h.repo.Get(c.Request.Context(), id); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	tasks, err := h.tasks.List(c.Request.Context(), task.ListFilter{ProjectID: string(id)})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
