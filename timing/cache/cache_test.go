package cache_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipssim/emu"
	"github.com/sarchlab/mipssim/timing/cache"
)

var _ = Describe("Cache", func() {
	var (
		c       *cache.Cache
		memory  *emu.Memory
		backing *cache.MemoryBacking
	)

	BeforeEach(func() {
		memory = emu.NewMemory(1024)
		backing = cache.NewMemoryBacking(memory)
		// 64 bytes, 2-way, 16-byte blocks: two sets
		config := cache.Config{
			Size:          64,
			Associativity: 2,
			BlockSize:     16,
			HitLatency:    1,
			MissLatency:   10,
		}
		Expect(config.Validate()).To(Succeed())
		c = cache.New(config, backing)
	})

	Describe("address decomposition", func() {
		It("should split block number into set and tag", func() {
			set, tag, offset := c.Decompose(0x47)
			Expect(set).To(Equal(uint32(0)))
			Expect(tag).To(Equal(uint32(2)))
			Expect(offset).To(Equal(uint32(7)))

			set, tag, offset = c.Decompose(0x13)
			Expect(set).To(Equal(uint32(1)))
			Expect(tag).To(Equal(uint32(0)))
			Expect(offset).To(Equal(uint32(3)))
		})
	})

	Describe("loads", func() {
		It("should miss on a cold cache and fill the whole block", func() {
			memory.Write32(0x20, 0xDEADBEEF)

			Expect(c.LoadByte(0x20)).To(Equal(byte(0xDE)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(BeZero())
			Expect(stats.Cycles).To(Equal(uint64(10)))

			Expect(c.LoadByte(0x23)).To(Equal(byte(0xEF)))
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
			Expect(c.Stats().Cycles).To(Equal(uint64(11)))
		})

		It("should evict the least recently used way", func() {
			// 0x00, 0x20 and 0x40 all map to set 0.
			c.LoadByte(0x00)
			c.LoadByte(0x20)
			c.LoadByte(0x00)
			c.LoadByte(0x40)

			Expect(c.Stats().Evictions).To(Equal(uint64(1)))

			c.LoadByte(0x00)
			Expect(c.Stats().Hits).To(Equal(uint64(2)))

			c.LoadByte(0x20)
			Expect(c.Stats().Misses).To(Equal(uint64(4)))
		})

		It("should evict the earliest untouched block once full", func() {
			for _, addr := range []uint32{0x00, 0x10, 0x20, 0x30} {
				c.LoadByte(addr)
			}
			Expect(c.Stats().Evictions).To(BeZero())

			c.LoadByte(0x40)

			snap := c.Snapshot()
			tags := []uint32{}
			for _, w := range snap.Sets[0] {
				Expect(w.Valid).To(BeTrue())
				tags = append(tags, w.Tag)
			}
			Expect(tags).To(ConsistOf(uint32(1), uint32(2)))
		})
	})

	Describe("stores", func() {
		It("should write through on a hit", func() {
			c.LoadByte(0x10)
			c.StoreByte(0x11, 0xAB, true)

			Expect(memory.Read8(0x11)).To(Equal(byte(0xAB)))
			Expect(c.LoadByte(0x11)).To(Equal(byte(0xAB)))
			Expect(c.Stats().Hits).To(Equal(uint64(2)))
		})

		It("should allocate on a miss with write-allocate", func() {
			c.StoreByte(0x30, 0x5A, true)

			Expect(memory.Read8(0x30)).To(Equal(byte(0x5A)))
			Expect(c.LoadByte(0x30)).To(Equal(byte(0x5A)))
			Expect(c.Stats().Misses).To(Equal(uint64(1)))
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
		})

		It("should not allocate on a miss without write-allocate", func() {
			c.StoreByte(0x30, 0x5A, false)

			Expect(memory.Read8(0x30)).To(Equal(byte(0x5A)))
			c.LoadByte(0x30)
			Expect(c.Stats().Misses).To(Equal(uint64(2)))
		})

		It("should route stores through a port with a fixed policy", func() {
			p := c.Port(false)
			p.StoreByte(0x08, 7)
			Expect(p.LoadByte(0x08)).To(Equal(byte(7)))
			Expect(c.Stats().Writes).To(Equal(uint64(1)))
			Expect(c.Stats().Reads).To(Equal(uint64(1)))
		})
	})

	It("should keep hits plus misses equal to accesses", func() {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 2000; i++ {
			addr := uint32(rng.Intn(1024))
			if rng.Intn(3) == 0 {
				c.StoreByte(addr, byte(i), rng.Intn(2) == 0)
			} else {
				c.LoadByte(addr)
			}
		}

		stats := c.Stats()
		Expect(stats.Hits + stats.Misses).To(Equal(stats.Reads + stats.Writes))
		Expect(stats.Reads + stats.Writes).To(Equal(uint64(2000)))
		Expect(c.Tick()).To(Equal(uint64(2000)))
	})

	It("should return the data in memory regardless of caching", func() {
		rng := rand.New(rand.NewSource(11))
		for i := 0; i < 500; i++ {
			addr := uint32(rng.Intn(256))
			if rng.Intn(2) == 0 {
				c.StoreByte(addr, byte(rng.Intn(256)), rng.Intn(2) == 0)
			} else {
				Expect(c.LoadByte(addr)).To(Equal(memory.Read8(addr)))
			}
		}
	})

	Describe("Reset", func() {
		It("should invalidate lines and clear statistics without touching memory", func() {
			memory.Write8(0x04, 9)
			c.LoadByte(0x04)
			c.StoreByte(0x05, 3, true)

			c.Reset()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Tick()).To(BeZero())
			for _, set := range c.Snapshot().Sets {
				for _, w := range set {
					Expect(w.Valid).To(BeFalse())
					Expect(w.LRU).To(BeZero())
				}
			}
			Expect(memory.Read8(0x05)).To(Equal(byte(3)))

			Expect(c.LoadByte(0x04)).To(Equal(byte(9)))
			Expect(c.Stats().Misses).To(Equal(uint64(1)))
		})
	})

	Describe("Snapshot", func() {
		It("should report tags, stamps and line data", func() {
			memory.Write8(0x12, 0x77)
			c.LoadByte(0x12)

			snap := c.Snapshot()
			Expect(snap.Tick).To(Equal(uint64(1)))
			Expect(snap.Sets).To(HaveLen(2))

			var found bool
			for _, w := range snap.Sets[1] {
				if w.Valid {
					found = true
					Expect(w.Tag).To(Equal(uint32(0)))
					Expect(w.LRU).To(Equal(uint64(1)))
					Expect(w.Data[2]).To(Equal(byte(0x77)))
				}
			}
			Expect(found).To(BeTrue())
		})
	})

	Describe("LastAccess", func() {
		It("should describe the most recent access", func() {
			_, ok := c.LastAccess()
			Expect(ok).To(BeFalse())
			Expect(c.Snapshot().LastAccess).To(BeNil())

			c.LoadByte(0x12)
			miss, ok := c.LastAccess()
			Expect(ok).To(BeTrue())
			Expect(miss.Kind).To(Equal(cache.AccessLoad))
			Expect(miss.Addr).To(Equal(uint32(0x12)))
			Expect(miss.Set).To(Equal(uint32(1)))
			Expect(miss.Tag).To(Equal(uint32(0)))
			Expect(miss.Offset).To(Equal(uint32(2)))
			Expect(miss.Hit).To(BeFalse())
			Expect(miss.Way).To(BeNumerically(">=", 0))

			c.StoreByte(0x13, 1, true)
			hit, _ := c.LastAccess()
			Expect(hit.Kind).To(Equal(cache.AccessStore))
			Expect(hit.Hit).To(BeTrue())
			Expect(hit.Way).To(Equal(miss.Way))
		})

		It("should report no way for a store miss without allocation", func() {
			c.StoreByte(0x40, 1, false)

			snap := c.Snapshot()
			Expect(snap.LastAccess).NotTo(BeNil())
			Expect(snap.LastAccess.Kind.String()).To(Equal("store"))
			Expect(snap.LastAccess.Set).To(Equal(uint32(0)))
			Expect(snap.LastAccess.Tag).To(Equal(uint32(2)))
			Expect(snap.LastAccess.Hit).To(BeFalse())
			Expect(snap.LastAccess.Way).To(Equal(-1))
		})

		It("should be cleared by reset", func() {
			c.LoadByte(0)
			c.Reset()

			_, ok := c.LastAccess()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Config", func() {
		It("should reject geometry that does not divide into sets", func() {
			bad := cache.DefaultL1DConfig()
			bad.BlockSize = 12
			Expect(bad.Validate()).NotTo(Succeed())

			bad = cache.DefaultL1DConfig()
			bad.Associativity = 0
			Expect(bad.Validate()).NotTo(Succeed())
		})

		It("should run a three-way cache with four sets", func() {
			config := cache.Config{Size: 192, Associativity: 3, BlockSize: 16, HitLatency: 1, MissLatency: 10}
			Expect(config.Validate()).To(Succeed())
			Expect(config.NumSets()).To(Equal(4))

			three := cache.New(config, backing)
			memory.Write8(192, 0x5A)
			for _, addr := range []uint32{0, 64, 128} {
				three.LoadByte(addr)
			}
			Expect(three.Stats().Evictions).To(BeZero())

			Expect(three.LoadByte(192)).To(Equal(byte(0x5A)))
			Expect(three.Stats().Evictions).To(Equal(uint64(1)))

			three.LoadByte(0)
			Expect(three.Stats().Misses).To(Equal(uint64(5)))
			Expect(three.Stats().Evictions).To(Equal(uint64(2)))
		})

		It("should report hit rate", func() {
			Expect(cache.Statistics{}.HitRate()).To(BeZero())
			Expect(cache.Statistics{Hits: 3, Misses: 1}.HitRate()).To(Equal(0.75))
		})
	})
})
