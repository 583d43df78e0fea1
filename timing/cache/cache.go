// Package cache provides a set-associative byte cache built on Akita cache
// components.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/mipssim/emu"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency"`
	// MissLatency in cycles (includes memory access time)
	MissLatency uint64 `json:"miss_latency"`
}

// DefaultL1IConfig returns the default instruction cache: 256 bytes,
// 2-way, 16-byte blocks.
func DefaultL1IConfig() Config {
	return Config{
		Size:          256,
		Associativity: 2,
		BlockSize:     16,
		HitLatency:    1,
		MissLatency:   10,
	}
}

// DefaultL1DConfig returns the default data cache: 512 bytes, 2-way,
// 16-byte blocks.
func DefaultL1DConfig() Config {
	return Config{
		Size:          512,
		Associativity: 2,
		BlockSize:     16,
		HitLatency:    1,
		MissLatency:   10,
	}
}

// NumSets returns the number of sets.
func (c Config) NumSets() int {
	return c.Size / (c.Associativity * c.BlockSize)
}

// Validate checks that the geometry describes a whole number of sets.
// Sizes need not be powers of two; set and tag come from division.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", c.Size)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be positive, got %d", c.Associativity)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %d", c.BlockSize)
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 || c.NumSets() == 0 {
		return fmt.Errorf("cache size %d is not a multiple of %d ways x %d bytes",
			c.Size, c.Associativity, c.BlockSize)
	}
	return nil
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads     uint64
	Writes    uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64

	// Cycles accumulates hit and miss latencies.
	Cycles uint64
}

// Accesses returns the number of lookups, which is always Hits+Misses.
func (s Statistics) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns Hits/Accesses, or 0 before the first access.
func (s Statistics) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Accesses())
}

// BackingStore is the next level in the memory hierarchy.
type BackingStore interface {
	// Read fetches data from the backing store.
	Read(addr uint32, size int) []byte
	// Write stores data to the backing store.
	Write(addr uint32, data []byte)
}

// Cache is a write-through set-associative cache with true LRU
// replacement. The Akita directory holds validity and tags and picks
// victims; the cache keeps line data and a per-way access stamp taken
// from a logical clock that advances on every access.
type Cache struct {
	config  Config
	numSets int

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore  [][]byte
	lastAccess []uint64

	tick    uint64
	stats   Statistics
	backing BackingStore

	last    Access
	hasLast bool
}

// New creates a new cache with the given configuration. The configuration
// must pass Validate.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.NumSets()
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config:  config,
		numSets: numSets,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore:  dataStore,
		lastAccess: make([]uint64, totalBlocks),
		backing:    backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// Tick returns the logical clock.
func (c *Cache) Tick() uint64 {
	return c.tick
}

// Decompose splits addr into its set index, tag and block offset.
func (c *Cache) Decompose(addr uint32) (set, tag, offset uint32) {
	block := addr / uint32(c.config.BlockSize)
	return block % uint32(c.numSets),
		block / uint32(c.numSets),
		addr % uint32(c.config.BlockSize)
}

func (c *Cache) blockAddr(addr uint32) uint64 {
	bs := uint64(c.config.BlockSize)
	return uint64(addr) / bs * bs
}

// blockIndex computes the index into dataStore for a block.
func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) lookup(addr uint32) *akitacache.Block {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block == nil || !block.IsValid {
		return nil
	}
	return block
}

func (c *Cache) touch(block *akitacache.Block) {
	c.directory.Visit(block)
	c.lastAccess[c.blockIndex(block)] = c.tick
}

// fill brings the block holding addr into a victim way.
func (c *Cache) fill(addr uint32) *akitacache.Block {
	blockAddr := c.blockAddr(addr)

	victim := c.directory.FindVictim(blockAddr)
	if victim.IsValid {
		c.stats.Evictions++
	}

	data := c.dataStore[c.blockIndex(victim)]
	if c.backing != nil {
		copy(data, c.backing.Read(uint32(blockAddr), c.config.BlockSize))
	} else {
		clear(data)
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false

	return victim
}

// LoadByte reads one byte through the cache.
func (c *Cache) LoadByte(addr uint32) byte {
	c.tick++
	c.stats.Reads++

	block := c.lookup(addr)
	hit := block != nil
	if hit {
		c.stats.Hits++
		c.stats.Cycles += c.config.HitLatency
	} else {
		c.stats.Misses++
		c.stats.Cycles += c.config.MissLatency
		block = c.fill(addr)
	}

	c.touch(block)
	c.record(AccessLoad, addr, hit, block.WayID)

	_, _, offset := c.Decompose(addr)
	return c.dataStore[c.blockIndex(block)][offset]
}

// StoreByte writes one byte. Backing memory is always updated. A hit also
// updates the line; a miss allocates the line only when writeAllocate is
// set.
func (c *Cache) StoreByte(addr uint32, value byte, writeAllocate bool) {
	c.tick++
	c.stats.Writes++

	if c.backing != nil {
		c.backing.Write(addr, []byte{value})
	}

	block := c.lookup(addr)
	hit := block != nil
	if hit {
		c.stats.Hits++
		c.stats.Cycles += c.config.HitLatency
	} else {
		c.stats.Misses++
		c.stats.Cycles += c.config.MissLatency
		if !writeAllocate {
			c.record(AccessStore, addr, false, -1)
			return
		}
		block = c.fill(addr)
	}

	c.touch(block)
	c.record(AccessStore, addr, hit, block.WayID)

	_, _, offset := c.Decompose(addr)
	c.dataStore[c.blockIndex(block)][offset] = value
}

// Reset invalidates every line and clears stamps, the clock, the last
// access and statistics. Backing memory is not touched.
func (c *Cache) Reset() {
	c.directory.Reset()
	for i := range c.dataStore {
		clear(c.dataStore[i])
	}
	clear(c.lastAccess)
	c.tick = 0
	c.stats = Statistics{}
	c.last = Access{}
	c.hasLast = false
}

// AccessKind tells loads from stores.
type AccessKind uint8

// Access kinds.
const (
	AccessLoad AccessKind = iota
	AccessStore
)

// String returns "load" or "store".
func (k AccessKind) String() string {
	if k == AccessStore {
		return "store"
	}
	return "load"
}

// Access describes one byte access for front ends.
type Access struct {
	Kind   AccessKind
	Addr   uint32
	Set    uint32
	Tag    uint32
	Offset uint32
	Hit    bool

	// Way is the line used, or -1 for a store miss that allocated none.
	Way int
}

func (c *Cache) record(kind AccessKind, addr uint32, hit bool, way int) {
	set, tag, offset := c.Decompose(addr)
	c.last = Access{
		Kind:   kind,
		Addr:   addr,
		Set:    set,
		Tag:    tag,
		Offset: offset,
		Hit:    hit,
		Way:    way,
	}
	c.hasLast = true
}

// LastAccess returns the most recent access, or false before the first
// one since reset.
func (c *Cache) LastAccess() (Access, bool) {
	return c.last, c.hasLast
}

// Port adapts the cache to emu.BytePort with a fixed allocation policy.
func (c *Cache) Port(writeAllocate bool) emu.BytePort {
	return &port{cache: c, writeAllocate: writeAllocate}
}

type port struct {
	cache         *Cache
	writeAllocate bool
}

func (p *port) LoadByte(addr uint32) byte {
	return p.cache.LoadByte(addr)
}

func (p *port) StoreByte(addr uint32, value byte) {
	p.cache.StoreByte(addr, value, p.writeAllocate)
}
