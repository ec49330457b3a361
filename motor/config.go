package motor

import (
	"github.com/Masterminds/semver"
	"github.com/clayxrex/stepperd/motor/errors"
	"gopkg.in/yaml.v2"
)

const CONFIG_VERSION = "~1.0"

// Config describes a single motor's wiring and limits. Pin numbers are BCM.
type Config struct {
	Enable      uint8
	Direction   uint8
	Pulse       uint8
	StepsPerRev int

	// MaxRPM caps requested speeds. Zero means unbounded.
	MaxRPM float64

	// HoldPosition keeps the coils energized between motions so the motor
	// resists external torque at the cost of heat and power.
	HoldPosition bool
}

type yamlMotor struct {
	Enable       uint8   `yaml:"enable"`
	Direction    uint8   `yaml:"direction"`
	Pulse        uint8   `yaml:"pulse"`
	StepsPerRev  int     `yaml:"steps_per_revolution"`
	MaxRPM       float64 `yaml:"max_rpm"`
	HoldPosition *bool   `yaml:"hold_position"`
}

func (c Config) MarshalYAML() (interface{}, error) {
	hold := c.HoldPosition
	return &yamlMotor{
		Enable:       c.Enable,
		Direction:    c.Direction,
		Pulse:        c.Pulse,
		StepsPerRev:  c.StepsPerRev,
		MaxRPM:       c.MaxRPM,
		HoldPosition: &hold,
	}, nil
}

func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ym yamlMotor
	if err := unmarshal(&ym); err != nil {
		return err
	}

	c.Enable = ym.Enable
	c.Direction = ym.Direction
	c.Pulse = ym.Pulse
	c.StepsPerRev = ym.StepsPerRev
	c.MaxRPM = ym.MaxRPM

	// Holding position is the safe default for anything carrying a load.
	c.HoldPosition = true
	if ym.HoldPosition != nil {
		c.HoldPosition = *ym.HoldPosition
	}

	return nil
}

// RigConfig is the on-disk description of every motor the daemon drives.
type RigConfig struct {
	Version string            `yaml:"version"`
	Motors  map[string]Config `yaml:"motors"`
}

// LoadRigConfig parses a rig config and checks its version against the
// supported constraint before anything touches hardware.
func LoadRigConfig(data []byte) (*RigConfig, error) {
	var config RigConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	semVer, err := semver.NewVersion(config.Version)
	if err != nil {
		return nil, errors.InvalidConfigVersionError{Version: config.Version, Constraint: CONFIG_VERSION}
	}

	constraint, err := semver.NewConstraint(CONFIG_VERSION)
	if err != nil {
		return nil, err
	}

	if !constraint.Check(semVer) {
		return nil, errors.InvalidConfigVersionError{Version: config.Version, Constraint: CONFIG_VERSION}
	}

	return &config, nil
}
