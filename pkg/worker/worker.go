package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/reading"
)

const TaskSweepReadingSessions = "sweep_reading_sessions"

// Task is a piece of housekeeping that runs on a fixed interval.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Worker struct {
	log   logger.Logger
	tasks []Task

	shutdown chan struct{}
	done     chan struct{}
}

func New(cfg *config.Config, registry *reading.Registry) *Worker {
	w := NewWithTasks()
	w.tasks = append(w.tasks, Task{
		Name:     TaskSweepReadingSessions,
		Interval: cfg.SweepInterval,
		Run: func(ctx context.Context) error {
			if n := registry.Sweep(time.Now()); n > 0 {
				logger.FromContext(ctx).Info("swept expired reading sessions", logger.Data{"count": n})
			}
			return nil
		},
	})
	return w
}

func NewWithTasks(tasks ...Task) *Worker {
	return &Worker{
		log:      logger.New(),
		tasks:    tasks,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}, len(tasks)+1),
	}
}

func (w *Worker) Start() {
	for _, task := range w.tasks {
		if task.Interval <= 0 {
			w.log.Warn("skipping task without a positive interval", logger.Data{"task": task.Name, "interval": task.Interval.String()})
			w.done <- struct{}{}
			continue
		}
		go w.runTask(task)
	}
}

func (w *Worker) runTask(task Task) {
	timer := time.NewTimer(task.Interval)
	defer timer.Stop()

	for {
		select {
		case <-w.shutdown:
			w.done <- struct{}{}
			return
		case <-timer.C:
			// Prep the context to be passed down to the task.
			id, err := uuid.NewRandom()
			if err != nil {
				w.log.Err(err).Error("new uuid error")
				timer.Reset(task.Interval)
				continue
			}
			log := w.log.ID(id.String()).Root(logger.Data{"task": task.Name})
			ctx := log.WithContext(context.Background())

			if err := task.Run(ctx); err != nil {
				log.Err(err).Error("task error")
			}
			timer.Reset(task.Interval)
		}
	}
}

// Shutdown stops every task and waits for any run in progress to finish.
func (w *Worker) Shutdown() {
	close(w.shutdown)

	for range w.tasks {
		<-w.done
	}
}
