package motor

// tracker counts steps clockwise from a caller-designated home reference on
// the circular [0, stepsPerRev) domain. Until home is marked the position is
// undefined and advance is a no-op.
type tracker struct {
	stepsPerRev   int
	homeSet       bool
	stepsFromHome int
}

// markHome designates the current physical position as the new reference.
// May be called at any position; any prior reference is superseded.
func (t *tracker) markHome() {
	t.homeSet = true
	t.stepsFromHome = 0
}

// advance must be called exactly once per physical pulse, in the pulse's
// direction. Wraparound at the 0/stepsPerRev boundary is the only special case.
func (t *tracker) advance(clockwise bool) {
	if !t.homeSet {
		return
	}

	if clockwise {
		t.stepsFromHome++
		if t.stepsFromHome == t.stepsPerRev {
			t.stepsFromHome = 0
		}
	} else {
		if t.stepsFromHome == 0 {
			t.stepsFromHome = t.stepsPerRev
		}
		t.stepsFromHome--
	}
}

func (t *tracker) position() (steps int, ok bool) {
	return t.stepsFromHome, t.homeSet
}
