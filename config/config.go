package config

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the reference values, flow conditions and tuning of a force evaluation
type Config struct {
	Reference  ReferenceConfig    `mapstructure:"reference"`
	Freestream FreestreamConfig   `mapstructure:"freestream"`
	Flow       FlowConfig         `mapstructure:"flow"`
	Monitoring []MonitoringConfig `mapstructure:"monitoring"`
	Parallel   ParallelConfig     `mapstructure:"parallel"`
	Logging    LoggingConfig      `mapstructure:"logging"`
}

// ReferenceConfig holds the normalization values of the coefficients
type ReferenceConfig struct {
	Area     float64 `mapstructure:"area"`
	Length   float64 `mapstructure:"length"`
	HeatFlux float64 `mapstructure:"heat_flux"`
}

// FreestreamConfig holds the undisturbed flow state
type FreestreamConfig struct {
	Density     float64   `mapstructure:"density"`
	Pressure    float64   `mapstructure:"pressure"`
	Temperature float64   `mapstructure:"temperature"`
	Velocity    []float64 `mapstructure:"velocity"`
}

// FlowConfig holds the physical model switches
type FlowConfig struct {
	// Regime is "compressible" or "incompressible"
	Regime string `mapstructure:"regime"`
	// AoA and AoS are the angles of attack and sideslip in degrees
	AoA          float64 `mapstructure:"aoa"`
	AoS          float64 `mapstructure:"aos"`
	Axisymmetric bool    `mapstructure:"axisymmetric"`
	Gamma        float64 `mapstructure:"gamma"`
	GasConstant  float64 `mapstructure:"gas_constant"`
	PrandtlLam   float64 `mapstructure:"prandtl_lam"`
	QCR          bool    `mapstructure:"qcr"`
	// Energy enables the temperature gradient in incompressible heat flux
	Energy      bool    `mapstructure:"energy"`
	DynamicGrid bool    `mapstructure:"dynamic_grid"`
	MachMotion  float64 `mapstructure:"mach_motion"`
	// IncNondim selects the incompressible reference: "initial_values" or "reference_values"
	IncNondim      string  `mapstructure:"inc_nondim"`
	IncDensityRef  float64 `mapstructure:"inc_density_ref"`
	IncVelocityRef float64 `mapstructure:"inc_velocity_ref"`
}

// MonitoringConfig declares one monitored surface and its moment origin
type MonitoringConfig struct {
	Tag    string    `mapstructure:"tag"`
	Origin []float64 `mapstructure:"origin"`
}

// ParallelConfig tunes the shared memory edge loops
type ParallelConfig struct {
	// Threads of 0 uses GOMAXPROCS
	Threads int `mapstructure:"threads"`
	// EdgeColoringGroupSize of 0 forces the reducer strategy and silences the efficiency warning
	EdgeColoringGroupSize       int     `mapstructure:"edge_coloring_group_size"`
	ColoringEfficiencyThreshold float64 `mapstructure:"coloring_efficiency_threshold"`
	ColoringAlgorithm           string  `mapstructure:"coloring_algorithm"`
}

// LoggingConfig selects the slog handler
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	Compressible   = "compressible"
	Incompressible = "incompressible"

	InitialValues   = "initial_values"
	ReferenceValues = "reference_values"
)

// Default returns the default configuration: a unit reference, air at sea level moving
// along +x, and one monitored surface named "wall".
func Default() *Config {
	return &Config{
		Reference: ReferenceConfig{
			Area:     1.0,
			Length:   1.0,
			HeatFlux: 1.0,
		},
		Freestream: FreestreamConfig{
			Density:     1.2886,
			Pressure:    101325.0,
			Temperature: 288.15,
			Velocity:    []float64{100.0, 0.0, 0.0},
		},
		Flow: FlowConfig{
			Regime:         Compressible,
			Gamma:          1.4,
			GasConstant:    287.058,
			PrandtlLam:     0.72,
			Energy:         true,
			IncNondim:      InitialValues,
			IncDensityRef:  1.0,
			IncVelocityRef: 1.0,
		},
		Monitoring: []MonitoringConfig{
			{Tag: "wall", Origin: []float64{0.25, 0.0, 0.0}},
		},
		Parallel: ParallelConfig{
			Threads:                     0,
			EdgeColoringGroupSize:       512,
			ColoringEfficiencyThreshold: 0.75,
			ColoringAlgorithm:           "greedy",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	// Reference defaults
	v.SetDefault("reference.area", defaults.Reference.Area)
	v.SetDefault("reference.length", defaults.Reference.Length)
	v.SetDefault("reference.heat_flux", defaults.Reference.HeatFlux)

	// Freestream defaults
	v.SetDefault("freestream.density", defaults.Freestream.Density)
	v.SetDefault("freestream.pressure", defaults.Freestream.Pressure)
	v.SetDefault("freestream.temperature", defaults.Freestream.Temperature)
	v.SetDefault("freestream.velocity", defaults.Freestream.Velocity)

	// Flow defaults
	v.SetDefault("flow.regime", defaults.Flow.Regime)
	v.SetDefault("flow.aoa", defaults.Flow.AoA)
	v.SetDefault("flow.aos", defaults.Flow.AoS)
	v.SetDefault("flow.axisymmetric", defaults.Flow.Axisymmetric)
	v.SetDefault("flow.gamma", defaults.Flow.Gamma)
	v.SetDefault("flow.gas_constant", defaults.Flow.GasConstant)
	v.SetDefault("flow.prandtl_lam", defaults.Flow.PrandtlLam)
	v.SetDefault("flow.qcr", defaults.Flow.QCR)
	v.SetDefault("flow.energy", defaults.Flow.Energy)
	v.SetDefault("flow.dynamic_grid", defaults.Flow.DynamicGrid)
	v.SetDefault("flow.mach_motion", defaults.Flow.MachMotion)
	v.SetDefault("flow.inc_nondim", defaults.Flow.IncNondim)
	v.SetDefault("flow.inc_density_ref", defaults.Flow.IncDensityRef)
	v.SetDefault("flow.inc_velocity_ref", defaults.Flow.IncVelocityRef)

	// Monitoring defaults
	monitoring := make([]map[string]any, 0, len(defaults.Monitoring))
	for _, m := range defaults.Monitoring {
		monitoring = append(monitoring, map[string]any{"tag": m.Tag, "origin": m.Origin})
	}
	v.SetDefault("monitoring", monitoring)

	// Parallel defaults
	v.SetDefault("parallel.threads", defaults.Parallel.Threads)
	v.SetDefault("parallel.edge_coloring_group_size", defaults.Parallel.EdgeColoringGroupSize)
	v.SetDefault("parallel.coloring_efficiency_threshold", defaults.Parallel.ColoringEfficiencyThreshold)
	v.SetDefault("parallel.coloring_algorithm", defaults.Parallel.ColoringAlgorithm)

	// Logging defaults
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
}

// NewViper returns a viper instance with defaults, FVLOADS_ environment overrides and,
// when path is not empty, the contents of that config file
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("FVLOADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return v, nil
}

// FromViper reads the configuration from v into a Config struct and validates it
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// IsCompressible reports whether the compressible reference values apply
func (c *Config) IsCompressible() bool {
	return c.Flow.Regime != Incompressible
}

// Alpha returns the angle of attack in radians
func (c *Config) Alpha() float64 { return c.Flow.AoA * math.Pi / 180.0 }

// Beta returns the sideslip angle in radians
func (c *Config) Beta() float64 { return c.Flow.AoS * math.Pi / 180.0 }

// Threads returns the worker count for shared memory loops
func (c *Config) Threads() int {
	if c.Parallel.Threads > 0 {
		return c.Parallel.Threads
	}
	return runtime.GOMAXPROCS(0)
}

// FreestreamVelocity returns the freestream velocity padded to three components
func (c *Config) FreestreamVelocity() (vel [3]float64) {
	copy(vel[:], c.Freestream.Velocity)
	return
}

// MonitoringIndex returns the index of tag in the monitoring list
func (c *Config) MonitoringIndex(tag string) (int, bool) {
	for i, m := range c.Monitoring {
		if m.Tag == tag {
			return i, true
		}
	}
	return -1, false
}

// Origin returns the moment reference origin of monitoring entry i, or zero when there is none
func (c *Config) Origin(i int) (origin [3]float64) {
	if i < 0 || i >= len(c.Monitoring) {
		return
	}
	copy(origin[:], c.Monitoring[i].Origin)
	return
}

// MonitoringTags returns the monitored surface tags in declaration order
func (c *Config) MonitoringTags() []string {
	tags := make([]string, len(c.Monitoring))
	for i, m := range c.Monitoring {
		tags[i] = m.Tag
	}
	return tags
}
