package main

import (
	"github.com/clayxrex/stepperd/motor"
)

// MotorWorker owns a motor's dedicated goroutine. The pulse loop is a
// blocking wait with no competing work, so every motion and every position
// read runs strictly in order on that one goroutine; the HTTP handlers and
// the shell only ever enqueue.
type MotorWorker struct {
	Motor     *motor.Motor
	Positions *PositionBroadcast

	jobs chan func()
}

func NewMotorWorker(m *motor.Motor) (w *MotorWorker) {
	w = &MotorWorker{
		Motor:     m,
		Positions: NewPositionBroadcast(),
		jobs:      make(chan func(), 16),
	}

	m.OnUpdate(w.Positions.Publish)

	go w.run()
	return
}

func (w *MotorWorker) run() {
	for job := range w.jobs {
		job()
	}
}

// Do runs fn on the motor's goroutine and blocks until it returns.
func (w *MotorWorker) Do(fn func(m *motor.Motor) error) error {
	done := make(chan error, 1)
	w.jobs <- func() {
		done <- fn(w.Motor)
	}
	return <-done
}

// State reads the position snapshot on the motor's goroutine, after any
// motion already queued ahead of it.
func (w *MotorWorker) State() (state motor.State) {
	w.Do(func(m *motor.Motor) error {
		state = m.State()
		return nil
	})
	return
}
