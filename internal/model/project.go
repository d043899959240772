package model

import "time"

type ProjectID string

// Milestone is a named checkpoint inside a project.
type Milestone struct {
	Title   string `json:"title"`
	DueDate string `json:"dueDate,omitempty"`
	Done    bool   `json:"done"`
}

// CompletionCriterion is a checklist item a project must satisfy to count
// as complete.
type CompletionCriterion struct {
	Text string `json:"text"`
	Met  bool   `json:"met"`
}

type Project struct {
	ID          ProjectID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DueDate     string    `json:"dueDate,omitempty"`

	Milestones         []Milestone           `json:"milestones"`
	CompletionCriteria []CompletionCriterion `json:"completionCriteria"`

	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
