package motor

import (
	"time"

	"github.com/clayxrex/stepperd/motor/errors"
	"github.com/clayxrex/stepperd/motor/gpio"
)

// Sleeper is the blocking wait primitive used to hold each pulse phase.
type Sleeper interface {
	Sleep(d time.Duration)
}

type wallClock struct{}

func (wallClock) Sleep(d time.Duration) { time.Sleep(d) }

// Driver boards such as the A4988 enable on a low level.
const (
	enableAsserted   = gpio.Low
	enableDeasserted = gpio.High

	directionCW  = gpio.High
	directionCCW = gpio.Low
)

// State is a snapshot of the tracked position.
type State struct {
	HomeSet       bool `json:"home_set"`
	StepsFromHome int  `json:"steps_from_home"`
}

// Motor drives a single stepper through three digital lines: enable,
// direction and pulse. It owns exclusive access to its pins and position
// state; callers must not invoke motions concurrently on one instance. A
// motion blocks until every pulse has been emitted, there is no cancellation.
type Motor struct {
	name string
	drv  gpio.Driver

	sleep Sleeper

	enablePin    uint8
	directionPin uint8
	pulsePin     uint8

	stepsPerRev  int
	maxRPM       float64
	maxRPMSet    bool
	holdPosition bool

	tracker tracker
	notify  func(State)
}

// New configures the three control pins as outputs and drives the enable
// line according to cfg.HoldPosition, matching the physical state the driver
// board will be left in between motions.
func New(name string, drv gpio.Driver, cfg Config) (*Motor, error) {
	if cfg.StepsPerRev <= 0 {
		return nil, errors.InvalidConfigError{Motor: name, StepsPerRev: cfg.StepsPerRev}
	}

	m := &Motor{
		name:         name,
		drv:          drv,
		sleep:        wallClock{},
		enablePin:    cfg.Enable,
		directionPin: cfg.Direction,
		pulsePin:     cfg.Pulse,
		stepsPerRev:  cfg.StepsPerRev,
		maxRPM:       cfg.MaxRPM,
		maxRPMSet:    cfg.MaxRPM > 0,
		holdPosition: cfg.HoldPosition,
		tracker:      tracker{stepsPerRev: cfg.StepsPerRev},
	}

	drv.Output(m.enablePin)
	drv.Output(m.directionPin)
	drv.Output(m.pulsePin)

	if m.holdPosition {
		drv.Write(m.enablePin, enableAsserted)
	} else {
		drv.Write(m.enablePin, enableDeasserted)
	}

	return m, nil
}

func (m *Motor) Name() string { return m.name }

func (m *Motor) StepsPerRev() int { return m.stepsPerRev }

// MaxRPM returns the configured speed limit. ok is false when unbounded.
func (m *Motor) MaxRPM() (rpm float64, ok bool) {
	return m.maxRPM, m.maxRPMSet
}

// StepAngle returns the angular distance moved per pulse, in degrees.
func (m *Motor) StepAngle() float64 {
	return 360 / float64(m.stepsPerRev)
}

func (m *Motor) State() (state State) {
	state.StepsFromHome, state.HomeSet = m.tracker.position()
	return
}

// MarkHome designates the current physical position as the home reference.
func (m *Motor) MarkHome() {
	m.tracker.markHome()
	m.notifyState()
}

// OnUpdate registers a listener invoked after every position change, on the
// goroutine executing the motion. Must be set before motions begin.
func (m *Motor) OnUpdate(fn func(State)) {
	m.notify = fn
}

func (m *Motor) notifyState() {
	if m.notify != nil {
		m.notify(m.State())
	}
}

// Step emits steps pulses in the given direction at the given speed. The
// direction line is written once per call, the enable line is asserted
// before the first pulse, and the position is updated after every single
// pulse so an interrupted process leaves the count consistent with the
// pulses actually emitted. Validation failures emit no pulses.
func (m *Motor) Step(steps int, clockwise bool, rpm float64) error {
	if steps < 0 {
		return errors.InvalidStepCountError{Steps: steps}
	}
	if m.maxRPMSet && rpm > m.maxRPM {
		return errors.SpeedExceededError{RPM: rpm, MaxRPM: m.maxRPM}
	}

	delay, err := DelayPerHalfStep(rpm, m.stepsPerRev)
	if err != nil {
		return err
	}

	if clockwise {
		m.drv.Write(m.directionPin, directionCW)
	} else {
		m.drv.Write(m.directionPin, directionCCW)
	}
	m.drv.Write(m.enablePin, enableAsserted)

	for i := 0; i < steps; i++ {
		m.drv.Write(m.pulsePin, gpio.High)
		m.sleep.Sleep(delay)
		m.drv.Write(m.pulsePin, gpio.Low)
		m.sleep.Sleep(delay)

		m.tracker.advance(clockwise)
		m.notifyState()
	}

	if !m.holdPosition {
		m.drv.Write(m.enablePin, enableDeasserted)
	}

	return nil
}

// Rotate turns the motor a whole number of revolutions.
func (m *Motor) Rotate(revolutions int, clockwise bool, rpm float64) error {
	return m.Step(revolutions*m.stepsPerRev, clockwise, rpm)
}

// DoOneRevolution turns the motor exactly one full revolution.
func (m *Motor) DoOneRevolution(clockwise bool, rpm float64) error {
	return m.Step(m.stepsPerRev, clockwise, rpm)
}
