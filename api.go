package main

import (
	"errors"
	"net/http"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/clayxrex/stepperd/motor"
	motorerrors "github.com/clayxrex/stepperd/motor/errors"
)

//---
// Renderers
//---

type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrRender(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Error rendering response.",
		ErrorText:      err.Error(),
	}
}

func ErrUnauthorized(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnauthorized,
		StatusText:     "Unauthorized.",
		ErrorText:      err.Error(),
	}
}

func ErrPermissionDenied(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusForbidden,
		StatusText:     "Permission denied.",
		ErrorText:      err.Error(),
	}
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}

// ErrMotion maps the motor error taxonomy onto HTTP statuses. Everything in
// the closed set is the caller's fault; anything else is ours.
func ErrMotion(err error) render.Renderer {
	switch err.(type) {
	case motorerrors.UnknownMotorError:
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusNotFound,
			StatusText:     "Resource not found.",
			ErrorText:      err.Error(),
		}
	case motorerrors.SpeedExceededError,
		motorerrors.InvalidSpeedError,
		motorerrors.InvalidStepCountError,
		motorerrors.PositionUnknownError,
		motorerrors.AmbiguousTargetError,
		motorerrors.TargetRangeError,
		motorerrors.StepMultipleError:
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusUnprocessableEntity,
			StatusText:     "Motion refused.",
			ErrorText:      err.Error(),
		}
	}
	return ErrRender(err)
}

//---
// Payloads
//---

type MotionPayload struct {
	Clockwise bool    `json:"clockwise"`
	RPM       float64 `json:"rpm"`
}

func (p *MotionPayload) Bind(r *http.Request) error {
	return nil
}

type StepPayload struct {
	MotionPayload
	Steps int `json:"steps"`
}

type RotatePayload struct {
	MotionPayload
	Revolutions int `json:"revolutions"`
}

type GoToPayload struct {
	MotionPayload
	StepIndex *int     `json:"step_index,omitempty"`
	Degrees   *float64 `json:"degrees,omitempty"`
}

type PresetPayload struct {
	Name      string `json:"name"`
	StepIndex *int   `json:"step_index,omitempty"` // nil saves the current position
}

func (p *PresetPayload) Bind(r *http.Request) error {
	if p.Name == "" {
		return errors.New("preset name is required")
	}
	return nil
}

type MotorResponse struct {
	Name        string      `json:"name"`
	StepsPerRev int         `json:"steps_per_revolution"`
	StepAngle   float64     `json:"step_angle"`
	MaxRPM      *float64    `json:"max_rpm,omitempty"`
	State       motor.State `json:"state"`
}

func NewMotorResponse(w *MotorWorker) (resp MotorResponse) {
	m := w.Motor
	resp = MotorResponse{
		Name:        m.Name(),
		StepsPerRev: m.StepsPerRev(),
		StepAngle:   m.StepAngle(),
		State:       w.State(),
	}
	if rpm, bounded := m.MaxRPM(); bounded {
		resp.MaxRPM = &rpm
	}
	return
}

// Preset is a named position on a motor's circular domain, persisted so the
// rig survives daemon restarts. Positions are relative to the marked home.
type Preset struct {
	ID        int    `storm:"id,increment"`
	Motor     string `storm:"index"`
	Name      string `storm:"index"`
	StepIndex int
}

//---
// Views
//---

func requestWorker(r *http.Request) (*MotorWorker, error) {
	name := chi.URLParam(r, "name")
	worker, ok := ENV.Workers[name]
	if !ok {
		return nil, motorerrors.UnknownMotorError{Name: name}
	}
	return worker, nil
}

func ListMotors(w http.ResponseWriter, r *http.Request) {
	motors := make([]MotorResponse, 0, len(ENV.Workers))
	for _, name := range ENV.Rig.Names() {
		motors = append(motors, NewMotorResponse(ENV.Workers[name]))
	}
	render.JSON(w, r, motors)
}

func GetMotor(w http.ResponseWriter, r *http.Request) {
	worker, err := requestWorker(r)
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}
	render.JSON(w, r, NewMotorResponse(worker))
}

func StepMotor(w http.ResponseWriter, r *http.Request) {
	worker, err := requestWorker(r)
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	data := &StepPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	err = worker.Do(func(m *motor.Motor) error {
		return m.Step(data.Steps, data.Clockwise, data.RPM)
	})
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	render.JSON(w, r, NewMotorResponse(worker))
}

func RotateMotor(w http.ResponseWriter, r *http.Request) {
	worker, err := requestWorker(r)
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	data := &RotatePayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	err = worker.Do(func(m *motor.Motor) error {
		return m.Rotate(data.Revolutions, data.Clockwise, data.RPM)
	})
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	render.JSON(w, r, NewMotorResponse(worker))
}

func HomeMotor(w http.ResponseWriter, r *http.Request) {
	worker, err := requestWorker(r)
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	worker.Do(func(m *motor.Motor) error {
		m.MarkHome()
		return nil
	})

	render.JSON(w, r, NewMotorResponse(worker))
}

func GoToPosition(w http.ResponseWriter, r *http.Request) {
	worker, err := requestWorker(r)
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	data := &GoToPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	target := motor.Target{StepIndex: data.StepIndex, Degrees: data.Degrees}
	err = worker.Do(func(m *motor.Motor) error {
		return m.GoTo(data.Clockwise, data.RPM, target)
	})
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	render.JSON(w, r, NewMotorResponse(worker))
}

func ListPresets(w http.ResponseWriter, r *http.Request) {
	worker, err := requestWorker(r)
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	presets := make([]Preset, 0)
	err = ENV.DB.Find("Motor", worker.Motor.Name(), &presets)
	if err != nil && err != storm.ErrNotFound {
		render.Render(w, r, ErrRender(err))
		return
	}

	render.JSON(w, r, presets)
}

func SavePreset(w http.ResponseWriter, r *http.Request) {
	worker, err := requestWorker(r)
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	data := &PresetPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	preset := Preset{
		Motor: worker.Motor.Name(),
		Name:  data.Name,
	}

	if data.StepIndex != nil {
		preset.StepIndex = *data.StepIndex
	} else {
		state := worker.State()
		if !state.HomeSet {
			render.Render(w, r, ErrMotion(motorerrors.PositionUnknownError{Motor: preset.Motor}))
			return
		}
		preset.StepIndex = state.StepsFromHome
	}

	// one preset per name per motor; saving again overwrites
	var existing Preset
	err = ENV.DB.Select(q.Eq("Motor", preset.Motor), q.Eq("Name", preset.Name)).First(&existing)
	if err == nil {
		preset.ID = existing.ID
	} else if err != storm.ErrNotFound {
		render.Render(w, r, ErrRender(err))
		return
	}

	if err := ENV.DB.Save(&preset); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, preset)
}

func GoToPreset(w http.ResponseWriter, r *http.Request) {
	worker, err := requestWorker(r)
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	data := &MotionPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	var preset Preset
	err = ENV.DB.Select(q.Eq("Motor", worker.Motor.Name()), q.Eq("Name", chi.URLParam(r, "preset"))).First(&preset)
	if err == storm.ErrNotFound {
		render.Render(w, r, ErrNotFound)
		return
	} else if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}

	err = worker.Do(func(m *motor.Motor) error {
		return m.GoTo(data.Clockwise, data.RPM, motor.StepTarget(preset.StepIndex))
	})
	if err != nil {
		render.Render(w, r, ErrMotion(err))
		return
	}

	render.JSON(w, r, NewMotorResponse(worker))
}
