package cache

// Way is a read-only copy of one cache way.
type Way struct {
	Valid bool
	Tag   uint32
	LRU   uint64
	Data  []byte
}

// Snapshot is a read-only copy of the cache contents.
type Snapshot struct {
	Config Config
	Tick   uint64
	Stats  Statistics

	// Sets is indexed by set, then way.
	Sets [][]Way

	// LastAccess is nil until the first access after reset.
	LastAccess *Access
}

// Snapshot copies the cache state.
func (c *Cache) Snapshot() Snapshot {
	s := Snapshot{
		Config: c.config,
		Tick:   c.tick,
		Stats:  c.stats,
		Sets:   make([][]Way, c.numSets),
	}

	if last, ok := c.LastAccess(); ok {
		s.LastAccess = &last
	}

	for i := range s.Sets {
		s.Sets[i] = make([]Way, c.config.Associativity)
	}

	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			idx := c.blockIndex(block)
			w := Way{
				Valid: block.IsValid,
				Data:  append([]byte(nil), c.dataStore[idx]...),
			}
			if block.IsValid {
				w.Tag = uint32(block.Tag/uint64(c.config.BlockSize)) / uint32(c.numSets)
				w.LRU = c.lastAccess[idx]
			}
			s.Sets[block.SetID][block.WayID] = w
		}
	}

	return s
}
