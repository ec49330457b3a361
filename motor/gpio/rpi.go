package gpio

import (
	"github.com/stianeikeland/go-rpio/v4"
)

// RPi drives the Raspberry Pi GPIO header through /dev/gpiomem.
// Pin numbers are BCM.
type RPi struct{}

func OpenRPi() (*RPi, error) {
	if err := rpio.Open(); err != nil {
		return nil, err
	}
	return &RPi{}, nil
}

func (d *RPi) Output(pin uint8) {
	rpio.Pin(pin).Output()
}

func (d *RPi) Write(pin uint8, level Level) {
	if level == High {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
}

func (d *RPi) Close() error {
	return rpio.Close()
}
