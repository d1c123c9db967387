package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/trigger"
)

// Backend implements trigger.Backend with time.AfterFunc timers. It is
// the default backend for tests and single-process deployments;
// production deployments needing durability across restarts should use
// trigger/temporal instead.
type Backend struct {
	mu sync.Mutex
	tasks map[string]*armedTask
}

type armedTask struct {
	timer *time.Timer
	canceled bool
	recurring bool
}

// New constructs an empty Backend.
func New() *Backend {
	return &Backend{tasks: make(map[string]*armedTask)}
}

func (b *Backend) Schedule(ctx context.Context, t trigger.Trigger, fire trigger.FireFunc) (string, error) {
	taskID := uuid.NewString()

	switch t.Mode {
	case trigger.ModeOneTime:
		when, err := time.Parse(time.RFC3339, t.ScheduleValue)
		if err != nil {
			return "", apperr.Wrap(apperr.InvalidInput, "trigger: invalid ONE_TIME schedule_value", err)
		}
		b.armOnce(taskID, time.Until(when), func() { fire(ctx, t.ID, when.UTC().Format(time.RFC3339Nano)) })

	case trigger.ModeFixedDelay:
		d, err := time.ParseDuration(t.ScheduleValue)
		if err != nil {
			return "", apperr.Wrap(apperr.InvalidInput, "trigger: invalid FIXED_DELAY schedule_value", err)
		}
		when := time.Now().Add(d)
		b.armOnce(taskID, d, func() { fire(ctx, t.ID, when.UTC().Format(time.RFC3339Nano)) })

	case trigger.ModeFixedRate:
		d, err := time.ParseDuration(t.ScheduleValue)
		if err != nil {
			return "", apperr.Wrap(apperr.InvalidInput, "trigger: invalid FIXED_RATE schedule_value", err)
		}
		b.armRecurring(taskID, d, func(scheduled time.Time) { fire(ctx, t.ID, scheduled.UTC().Format(time.RFC3339Nano)) })

	case trigger.ModeCron:
		next, err := nextCronOccurrence(t.ScheduleValue, time.Now())
		if err != nil {
			return "", err
		}
		b.armCron(taskID, t.ScheduleValue, next, func(scheduled time.Time) { fire(ctx, t.ID, scheduled.UTC().Format(time.RFC3339Nano)) })

	default:
		return "", apperr.Errorf(apperr.InvalidInput, "trigger: unknown schedule_mode %q", t.Mode)
	}

	return taskID, nil
}

func (b *Backend) armOnce(taskID string, delay time.Duration, cb func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	task := &armedTask{}
	task.timer = time.AfterFunc(delay, func() {
		b.mu.Lock()
		canceled := task.canceled
		if !canceled {
			delete(b.tasks, taskID)
		}
		b.mu.Unlock()
		if !canceled {
			cb()
		}
	})
	b.tasks[taskID] = task
}

func (b *Backend) armRecurring(taskID string, interval time.Duration, cb func(scheduled time.Time)) {
	b.mu.Lock()
	task := &armedTask{recurring: true}
	b.tasks[taskID] = task
	b.mu.Unlock()

	var rearm func()
	rearm = func() {
		scheduled := time.Now().Add(interval)
		b.mu.Lock()
		if task.canceled {
			b.mu.Unlock()
			return
		}
		task.timer = time.AfterFunc(interval, func() {
			b.mu.Lock()
			canceled := task.canceled
			b.mu.Unlock()
			if canceled {
				return
			}
			rearm()
			cb(scheduled)
		})
		b.mu.Unlock()
	}
	rearm()
}

func (b *Backend) armCron(taskID, expr string, next time.Time, cb func(scheduled time.Time)) {
	b.mu.Lock()
	task := &armedTask{recurring: true}
	b.tasks[taskID] = task
	b.mu.Unlock()

	var rearm func(from time.Time)
	rearm = func(from time.Time) {
		occ, err := nextCronOccurrence(expr, from)
		if err != nil {
			return
		}
		b.mu.Lock()
		if task.canceled {
			b.mu.Unlock()
			return
		}
		task.timer = time.AfterFunc(time.Until(occ), func() {
			b.mu.Lock()
			canceled := task.canceled
			b.mu.Unlock()
			if canceled {
				return
			}
			cb(occ)
			rearm(occ)
		})
		b.mu.Unlock()
	}
	rearm(next.Add(-time.Minute))
}

func (b *Backend) Cancel(_ context.Context, backendTaskID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	task, ok := b.tasks[backendTaskID]
	if !ok {
		return nil
	}
	task.canceled = true
	if task.timer != nil {
		task.timer.Stop()
	}
	delete(b.tasks, backendTaskID)
	return nil
}

func (b *Backend) IsRunning(_ context.Context, backendTaskID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	task, ok := b.tasks[backendTaskID]
	return ok && !task.canceled, nil
}
