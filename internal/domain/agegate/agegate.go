package agegate

import (
	"fmt"

	"github.com/stroppy-io/gatedfetch/internal/domain/outcome"
)

const (
	DefaultThreshold = 18
	OfAgeMessage     = "User is of age"
)

type Config struct {
	// Threshold is the minimum accepted age and must be positive.
	Threshold int `mapstructure:"threshold" default:"18" validate:"gt=0"`
	// Age is the value checked by the fetch workflow when the caller supplies none.
	Age int `mapstructure:"age" default:"20" validate:"gte=0"`
}

func DefaultConfig() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Age:       20,
	}
}

func (c *Config) Validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("gate threshold must be positive, got %d", c.Threshold)
	}
	if c.Age < 0 {
		return fmt.Errorf("gate age must not be negative, got %d", c.Age)
	}
	return nil
}

// Validator decides age eligibility. A zero threshold, as in the zero value,
// means DefaultThreshold.
type Validator struct {
	threshold int
}

func NewValidator(threshold int) *Validator {
	return &Validator{threshold: threshold}
}

func (v *Validator) Threshold() int {
	if v == nil || v.threshold == 0 {
		return DefaultThreshold
	}
	return v.threshold
}

// Validate settles synchronously: ages below the threshold fail with a
// validation error, everything else succeeds with OfAgeMessage.
func (v *Validator) Validate(age int) outcome.Outcome[string] {
	threshold := v.Threshold()
	if age < threshold {
		return outcome.Invalid[string](outcome.NewAgeError(threshold))
	}
	return outcome.Ok(OfAgeMessage)
}
