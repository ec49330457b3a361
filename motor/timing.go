package motor

import (
	"time"

	"github.com/clayxrex/stepperd/motor/errors"
)

// DelayPerHalfStep converts a rotational speed into the wall clock hold time
// for each electrical half-phase of a pulse. A pulse is high then low, each
// held for this long, so one full pulse advances the motor exactly one step
// at the requested rpm.
func DelayPerHalfStep(rpm float64, stepsPerRev int) (time.Duration, error) {
	if rpm <= 0 {
		return 0, errors.InvalidSpeedError{RPM: rpm}
	}

	secondsPerRev := 60 / rpm
	delay := secondsPerRev / float64(stepsPerRev*2)

	return time.Duration(delay * float64(time.Second)), nil
}
