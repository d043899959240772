package task

import (
	"sort"
	"strings"
	"time"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

const FilterAll = "all"

// Filters are combinable with AND semantics.
type Filters struct {
	// Query is a case-insensitive substring match on title + description.
	Query string
	// Status is a canonical status, "" or "all".
	Status string
	// Category is an exact category, "" or "all".
	Category string
}

type SortKey string

const (
	SortPriority SortKey = "priority"
	SortDueDate  SortKey = "due_date"
	SortCreated  SortKey = "created"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

type Sort struct {
	Key SortKey
	Dir SortDir
}

// ProcessTasks produces a filtered, ordered view of the collection for
// presentation. The sort is stable; ties on the primary key fall back to
// the task id so the order is reproducible across re-fetches.
func ProcessTasks(tasks []model.Task, f Filters, s Sort) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, f) {
			out = append(out, t)
		}
	}

	less := comparator(s.Key)
	sort.SliceStable(out, func(i, j int) bool {
		cmp := less(out[i], out[j])
		if cmp == 0 {
			cmp = strings.Compare(string(out[i].ID), string(out[j].ID))
		}
		if s.Dir == Desc {
			cmp = -cmp
		}
		return cmp < 0
	})
	return out
}

func matches(t model.Task, f Filters) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		haystack := strings.ToLower(t.Title + " " + t.Description)
		if !strings.Contains(haystack, q) {
			return false
		}
	}

	status := strings.ToLower(strings.TrimSpace(f.Status))
	if status != "" && status != FilterAll {
		want, ok := model.ParseStatus(status)
		if !ok || t.Status != want {
			return false
		}
	}

	category := strings.TrimSpace(f.Category)
	if category != "" && !strings.EqualFold(category, FilterAll) {
		if !strings.EqualFold(t.Category, category) {
			return false
		}
	}

	return true
}

// comparator returns a three-way compare for the sort key, ascending.
func comparator(key SortKey) func(a, b model.Task) int {
	switch key {
	case SortPriority:
		return func(a, b model.Task) int {
			return a.Priority.Weight() - b.Priority.Weight()
		}
	case SortDueDate:
		return func(a, b model.Task) int {
			da, aok := a.DueAt(time.UTC)
			db, bok := b.DueAt(time.UTC)
			switch {
			case !aok && !bok:
				return 0
			case !aok:
				// tasks without a parseable due date sort last
				return 1
			case !bok:
				return -1
			case da.Before(db):
				return -1
			case da.After(db):
				return 1
			default:
				return 0
			}
		}
	default: // SortCreated
		return func(a, b model.Task) int {
			switch {
			case a.CreatedAt.Before(b.CreatedAt):
				return -1
			case a.CreatedAt.After(b.CreatedAt):
				return 1
			default:
				return 0
			}
		}
	}
}
