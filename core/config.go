package core

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/nandsim/corevm/trace"
)

// Config holds the knobs that shape a Core's timing and memory layout.
// It is built via functional options and can be round-tripped to/from
// YAML for saved run configurations.
type Config struct {
	Period        uint64     `yaml:"period"`
	Lanes         int        `yaml:"instruction_lanes"`
	MemorySize    int        `yaml:"memory_size"`
	MemoryBanks   int        `yaml:"memory_banks"`
	ForwardResult bool       `yaml:"forward_result"`
	StartTime     uint64     `yaml:"start_time"`
	Sink          trace.Sink `yaml:"-"`
}

// Option configures a Config.
type Option func(*Config)

// WithPeriod sets the per-cycle time quantum used when scheduling the
// core's functional units and dispatcher.
func WithPeriod(p uint64) Option {
	return func(c *Config) { c.Period = p }
}

// WithLanes sets how many instructions the dispatcher may issue per
// cycle.
func WithLanes(n int) Option {
	return func(c *Config) { c.Lanes = n }
}

// WithMemory sets the backing memory's total size and bank count.
func WithMemory(size, banks int) Option {
	return func(c *Config) {
		c.MemorySize = size
		c.MemoryBanks = banks
	}
}

// WithForwarding enables same-cycle result forwarding from a functional
// unit's output directly back to a dependent instruction's operand,
// instead of requiring a full writeback-then-read round trip.
func WithForwarding(enabled bool) Option {
	return func(c *Config) { c.ForwardResult = enabled }
}

// WithStartTime delays the core's first cycle (and its units' first
// ticks) to t.
func WithStartTime(t uint64) Option {
	return func(c *Config) { c.StartTime = t }
}

// WithTraceSink sets the sink that connections and units emit trace
// events to.
func WithTraceSink(sink trace.Sink) Option {
	return func(c *Config) { c.Sink = sink }
}

// defaultConfig mirrors the values a freshly constructed Core would want
// if the caller supplies no options at all.
func defaultConfig() Config {
	return Config{
		Period:      1,
		Lanes:       1,
		MemorySize:  1 << 20,
		MemoryBanks: 8,
		Sink:        trace.Discard,
	}
}

// NewConfig builds a Config from defaults plus opts.
func NewConfig(opts ...Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Sink == nil {
		cfg.Sink = trace.Discard
	}
	return cfg
}

// LoadConfig reads a YAML configuration file. The trace sink is never
// serialized; callers should apply WithTraceSink after loading if needed.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("core: reading config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("core: parsing config %q: %w", path, err)
	}
	if cfg.Sink == nil {
		cfg.Sink = trace.Discard
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("core: marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("core: writing config %q: %w", path, err)
	}
	return nil
}
