package reminder

import (
	"context"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/model"
	"github.com/studiorevonza/Task.One-sub000/internal/task"
)

// Notifier receives fired reminders, usually the websocket hub.
type Notifier interface {
	Broadcast(kind string, payload any)
}

// Recorder mirrors the activity log shape.
type Recorder interface {
	Record(event string, meta map[string]any)
}

// Scheduler polls the task store on a cron schedule and fires due
// reminders. Each reminder fires at most once; the sent flag is flipped
// through the repo's guarded MarkReminderSent before anything is
// delivered.
type Scheduler struct {
	repo   task.Repo
	clk    clock.Clock
	loc    *time.Location
	log    zerolog.Logger
	notify Notifier
	record Recorder

	cron *rcron.Cron
}

func NewScheduler(repo task.Repo, clk clock.Clock, loc *time.Location, log zerolog.Logger) *Scheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		repo: repo,
		clk:  clk,
		loc:  loc,
		log:  log,
	}
}

func (s *Scheduler) SetNotifier(n Notifier) { s.notify = n }
func (s *Scheduler) SetRecorder(r Recorder) { s.record = r }

// Start begins polling on the given cron expression (seconds field
// included, e.g. "*/30 * * * * *").
func (s *Scheduler) Start(expr string) error {
	c := rcron.New(rcron.WithSeconds())
	if _, err := c.AddFunc(expr, func() {
		if _, err := s.CheckOnce(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("reminder sweep failed")
		}
	}); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.log.Info().Str("schedule", expr).Msg("reminder scheduler started")
	return nil
}

// Stop halts polling and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

// CheckOnce runs a single sweep and returns the tasks whose reminders
// fired during it.
func (s *Scheduler) CheckOnce(ctx context.Context) ([]model.Task, error) {
	all, err := s.repo.List(ctx, task.ListFilter{})
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	var fired []model.Task
	for _, t := range all {
		if !task.ShouldFireReminder(t, now, s.loc) {
			continue
		}
		won, err := s.repo.MarkReminderSent(ctx, t.ID)
		if err != nil {
			s.log.Error().Err(err).Str("task_id", string(t.ID)).Msg("mark reminder sent failed")
			continue
		}
		if !won {
			continue
		}
		t.ReminderSent = true
		fired = append(fired, t)

		s.log.Info().
			Str("task_id", string(t.ID)).
			Str("title", t.Title).
			Str("due_date", t.DueDate).
			Msg("reminder fired")
		if s.notify != nil {
			s.notify.Broadcast("reminder_fired", t)
		}
		if s.record != nil {
			s.record.Record("reminder_fired", map[string]any{
				"taskId": string(t.ID),
				"title":  t.Title,
			})
		}
	}
	return fired, nil
}
