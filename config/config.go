// Package config holds the machine configuration shared by both execution
// engines.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/mipssim/timing/cache"
)

// Config selects memory size, pipeline behavior and cache geometry.
type Config struct {
	// MemorySize is the size of the flat byte memory. Default: 1024.
	MemorySize uint32 `json:"memory_size"`

	// DelaySlot enables MIPS branch delay slots. Default: true.
	DelaySlot bool `json:"delay_slot"`

	// HazardDetection enables decode stalls for data hazards. Default: true.
	HazardDetection bool `json:"hazard_detection"`

	// Forwarding enables the EX/MEM and MEM/WB bypass paths. Default: true.
	Forwarding bool `json:"forwarding"`

	// WriteAllocate allocates a data cache line on a store miss.
	// Default: true.
	WriteAllocate bool `json:"write_allocate"`

	// LoopThreshold bounds the steps (single-cycle) or cycles (pipelined)
	// of one run. Default: 10000.
	LoopThreshold uint64 `json:"loop_threshold"`

	ICache cache.Config `json:"icache"`
	DCache cache.Config `json:"dcache"`
}

// DefaultConfig returns the default machine.
func DefaultConfig() *Config {
	return &Config{
		MemorySize:      1024,
		DelaySlot:       true,
		HazardDetection: true,
		Forwarding:      true,
		WriteAllocate:   true,
		LoopThreshold:   10000,
		ICache:          cache.DefaultL1IConfig(),
		DCache:          cache.DefaultL1DConfig(),
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the
// file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the memory size and both cache geometries.
func (c *Config) Validate() error {
	if c.MemorySize == 0 {
		return fmt.Errorf("memory_size must be > 0")
	}
	if c.MemorySize%4 != 0 {
		return fmt.Errorf("memory_size must be a multiple of 4, got %d", c.MemorySize)
	}
	if c.LoopThreshold == 0 {
		return fmt.Errorf("loop_threshold must be > 0")
	}

	if err := c.ICache.Validate(); err != nil {
		return fmt.Errorf("icache: %w", err)
	}
	if err := c.DCache.Validate(); err != nil {
		return fmt.Errorf("dcache: %w", err)
	}

	// Line fills read whole blocks from memory.
	for _, bs := range []int{c.ICache.BlockSize, c.DCache.BlockSize} {
		if c.MemorySize%uint32(bs) != 0 {
			return fmt.Errorf("memory_size %d is not a multiple of block size %d",
				c.MemorySize, bs)
		}
	}

	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
