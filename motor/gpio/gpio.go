// Package gpio abstracts the digital output lines a motor controller drives.
// Pin level failures are the backend's concern; Write is fire-and-forget.
package gpio

type Level bool

const (
	Low  Level = false
	High Level = true
)

type Driver interface {
	// Output configures the pin as a digital output.
	Output(pin uint8)
	// Write drives the pin to the given level.
	Write(pin uint8, level Level)
}
