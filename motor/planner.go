package motor

import (
	"math"

	"github.com/clayxrex/stepperd/motor/errors"
)

// Target is an absolute position, expressed either as a step index counted
// clockwise from home or as an angle in degrees. Exactly one of the two
// fields may be set.
type Target struct {
	StepIndex *int
	Degrees   *float64
}

// StepTarget describes a position by its step index relative to home.
func StepTarget(index int) Target {
	return Target{StepIndex: &index}
}

// DegreeTarget describes a position by its angle of rotation from home.
func DegreeTarget(degrees float64) Target {
	return Target{Degrees: &degrees}
}

// GoTo moves the motor to an absolute position, travelling in the requested
// direction only. The caller's direction choice is authoritative: the motor
// wraps through home if that is what the direction demands, it never picks
// the geometrically shorter arc. Targeting the current position is a no-op.
func (m *Motor) GoTo(clockwise bool, rpm float64, target Target) error {
	current, ok := m.tracker.position()
	if !ok {
		return errors.PositionUnknownError{Motor: m.name}
	}

	if target.StepIndex == nil && target.Degrees == nil {
		return errors.AmbiguousTargetError{}
	}
	if target.StepIndex != nil && target.Degrees != nil {
		return errors.AmbiguousTargetError{HasStepIndex: true, HasDegrees: true}
	}

	var index int
	if target.Degrees != nil {
		degrees := *target.Degrees
		if degrees < 0 || degrees > 360 {
			return errors.TargetRangeError{Degrees: degrees, ByDegrees: true}
		}

		// The angle must land exactly on a step boundary, no rounding.
		stepAngle := m.StepAngle()
		if degrees/stepAngle != math.Trunc(degrees/stepAngle) {
			return errors.StepMultipleError{Degrees: degrees, StepAngle: stepAngle}
		}
		index = int(degrees / stepAngle)
	} else {
		index = *target.StepIndex
	}

	if index == current {
		return nil
	}

	if index < 0 || index > m.stepsPerRev-1 {
		return errors.TargetRangeError{StepIndex: index, StepsPerRev: m.stepsPerRev}
	}

	var distance int
	if clockwise {
		if index > current {
			distance = index - current
		} else {
			distance = m.stepsPerRev - current + index
		}
	} else {
		if index > current {
			distance = current + (m.stepsPerRev - index)
		} else {
			distance = current - index
		}
	}

	return m.Step(distance, clockwise, rpm)
}
