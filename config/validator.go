package config

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// ErrInvalid matches every ValidationErrors value through errors.Is
var ErrInvalid = errors.New("invalid configuration")

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "reference.area")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is reports ErrInvalid
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalid
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log handler formats
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// ValidColoringAlgorithms returns the supported edge coloring heuristics
func ValidColoringAlgorithms() []string {
	return []string{"greedy", "welsh-powell"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateReference()...)
	errs = append(errs, c.validateFlow()...)
	errs = append(errs, c.validateMonitoring()...)
	errs = append(errs, c.validateParallel()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func positive(field string, v float64) []ValidationError {
	if !(v > 0) || math.IsInf(v, 0) {
		return []ValidationError{{Field: field, Value: v, Message: "must be a positive finite number"}}
	}
	return nil
}

func (c *Config) validateReference() []ValidationError {
	var errs []ValidationError
	errs = append(errs, positive("reference.area", c.Reference.Area)...)
	errs = append(errs, positive("reference.length", c.Reference.Length)...)
	errs = append(errs, positive("reference.heat_flux", c.Reference.HeatFlux)...)
	return errs
}

func (c *Config) validateFlow() []ValidationError {
	var errs []ValidationError
	f := c.Flow
	if f.Regime != Compressible && f.Regime != Incompressible {
		errs = append(errs, ValidationError{Field: "flow.regime", Value: f.Regime,
			Message: "must be compressible or incompressible"})
	}
	if len(c.Freestream.Velocity) < 2 || len(c.Freestream.Velocity) > 3 {
		errs = append(errs, ValidationError{Field: "freestream.velocity", Value: c.Freestream.Velocity,
			Message: "must have 2 or 3 components"})
	}
	errs = append(errs, positive("freestream.density", c.Freestream.Density)...)
	if f.Regime == Compressible {
		if !(f.Gamma > 1) {
			errs = append(errs, ValidationError{Field: "flow.gamma", Value: f.Gamma, Message: "must exceed 1"})
		}
		errs = append(errs, positive("flow.gas_constant", f.GasConstant)...)
		errs = append(errs, positive("flow.prandtl_lam", f.PrandtlLam)...)
		if f.DynamicGrid {
			errs = append(errs, positive("flow.mach_motion", f.MachMotion)...)
			errs = append(errs, positive("freestream.temperature", c.Freestream.Temperature)...)
		}
	}
	if f.Regime == Incompressible {
		switch f.IncNondim {
		case InitialValues:
		case ReferenceValues:
			errs = append(errs, positive("flow.inc_density_ref", f.IncDensityRef)...)
			errs = append(errs, positive("flow.inc_velocity_ref", f.IncVelocityRef)...)
		default:
			errs = append(errs, ValidationError{Field: "flow.inc_nondim", Value: f.IncNondim,
				Message: "must be initial_values or reference_values"})
		}
	}
	return errs
}

func (c *Config) validateMonitoring() []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(c.Monitoring))
	for i, m := range c.Monitoring {
		field := fmt.Sprintf("monitoring[%d]", i)
		if m.Tag == "" {
			errs = append(errs, ValidationError{Field: field + ".tag", Value: m.Tag, Message: "must not be empty"})
		}
		if seen[m.Tag] {
			errs = append(errs, ValidationError{Field: field + ".tag", Value: m.Tag, Message: "duplicate tag"})
		}
		seen[m.Tag] = true
		if len(m.Origin) > 3 {
			errs = append(errs, ValidationError{Field: field + ".origin", Value: m.Origin,
				Message: "must have at most 3 components"})
		}
	}
	return errs
}

func (c *Config) validateParallel() []ValidationError {
	var errs []ValidationError
	p := c.Parallel
	if p.Threads < 0 {
		errs = append(errs, ValidationError{Field: "parallel.threads", Value: p.Threads, Message: "must be >= 0"})
	}
	if p.EdgeColoringGroupSize < 0 {
		errs = append(errs, ValidationError{Field: "parallel.edge_coloring_group_size",
			Value: p.EdgeColoringGroupSize, Message: "must be >= 0"})
	}
	if !(p.ColoringEfficiencyThreshold > 0 && p.ColoringEfficiencyThreshold <= 1) {
		errs = append(errs, ValidationError{Field: "parallel.coloring_efficiency_threshold",
			Value: p.ColoringEfficiencyThreshold, Message: "must be in (0,1]"})
	}
	if !slices.Contains(ValidColoringAlgorithms(), p.ColoringAlgorithm) {
		errs = append(errs, ValidationError{Field: "parallel.coloring_algorithm", Value: p.ColoringAlgorithm,
			Message: fmt.Sprintf("must be one of %v", ValidColoringAlgorithms())})
	}
	return errs
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError
	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errs = append(errs, ValidationError{Field: "logging.level", Value: c.Logging.Level,
			Message: fmt.Sprintf("must be one of %v", ValidLogLevels())})
	}
	if !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		errs = append(errs, ValidationError{Field: "logging.format", Value: c.Logging.Format,
			Message: fmt.Sprintf("must be one of %v", ValidLogFormats())})
	}
	return errs
}
