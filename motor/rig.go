package motor

import (
	"sort"

	"github.com/clayxrex/stepperd/motor/errors"
	"github.com/clayxrex/stepperd/motor/gpio"
)

// Rig holds every motor built from a RigConfig over one shared pin driver.
// Motors on disjoint pin sets are independent; the driver must be safe for
// use from the goroutines serving them.
type Rig struct {
	Motors map[string]*Motor
}

func NewRig(drv gpio.Driver, config *RigConfig) (rig *Rig, err error) {
	rig = &Rig{
		Motors: make(map[string]*Motor, len(config.Motors)),
	}

	for name, mConf := range config.Motors {
		rig.Motors[name], err = New(name, drv, mConf)
		if err != nil {
			return nil, err
		}
	}

	return rig, nil
}

func (r *Rig) Motor(name string) (*Motor, error) {
	m, ok := r.Motors[name]
	if !ok {
		return nil, errors.UnknownMotorError{Name: name}
	}
	return m, nil
}

func (r *Rig) Names() []string {
	names := make([]string, 0, len(r.Motors))
	for name := range r.Motors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
