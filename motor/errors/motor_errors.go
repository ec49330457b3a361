package errors

import "fmt"

type InvalidConfigError struct {
	Motor       string
	StepsPerRev int
}

func (err InvalidConfigError) Error() string {
	return fmt.Sprintf("motor %s: steps_per_revolution must be positive, got %d", err.Motor, err.StepsPerRev)
}

type InvalidConfigVersionError struct {
	Version    string
	Constraint string
}

func (err InvalidConfigVersionError) Error() string {
	return fmt.Sprintf("unable to use config version %s - require %s", err.Version, err.Constraint)
}

type SpeedExceededError struct {
	RPM    float64
	MaxRPM float64
}

func (err SpeedExceededError) Error() string {
	return fmt.Sprintf("desired rpm %g is higher than max rpm %g", err.RPM, err.MaxRPM)
}

type InvalidSpeedError struct {
	RPM float64
}

func (err InvalidSpeedError) Error() string {
	return fmt.Sprintf("rpm must be positive, got %g", err.RPM)
}

type InvalidStepCountError struct {
	Steps int
}

func (err InvalidStepCountError) Error() string {
	return fmt.Sprintf("step count must not be negative, got %d", err.Steps)
}

type PositionUnknownError struct {
	Motor string
}

func (err PositionUnknownError) Error() string {
	return fmt.Sprintf("motor %s: cannot go to position before home has been marked", err.Motor)
}

type AmbiguousTargetError struct {
	HasStepIndex bool
	HasDegrees   bool
}

func (err AmbiguousTargetError) Error() string {
	if err.HasStepIndex && err.HasDegrees {
		return "specify either a step index or degrees, not both"
	}
	return "no step index or degrees given"
}

type TargetRangeError struct {
	StepIndex   int
	Degrees     float64
	ByDegrees   bool
	StepsPerRev int
}

func (err TargetRangeError) Error() string {
	if err.ByDegrees {
		return fmt.Sprintf("degrees must be between 0 and 360, got %g", err.Degrees)
	}
	return fmt.Sprintf("step index %d is outside [0, %d)", err.StepIndex, err.StepsPerRev)
}

type StepMultipleError struct {
	Degrees   float64
	StepAngle float64
}

func (err StepMultipleError) Error() string {
	return fmt.Sprintf("%g degrees is not a multiple of the motor step angle %g", err.Degrees, err.StepAngle)
}

type UnknownMotorError struct {
	Name string
}

func (err UnknownMotorError) Error() string {
	return fmt.Sprintf("unable to find motor '%s'", err.Name)
}
