package emu

import "fmt"

// BytePort is a byte-granular path to memory. Memory implements it
// directly; caches implement it to add timing and statistics.
type BytePort interface {
	LoadByte(addr uint32) byte
	StoreByte(addr uint32, value byte)
}

// LoadStoreUnit performs aligned, big-endian accesses of 1, 2 or 4 bytes
// through a BytePort. Bytes past the end of memory read as zero and
// writes to them are dropped.
type LoadStoreUnit struct {
	port  BytePort
	limit uint32
}

// NewLoadStoreUnit creates a load/store unit over port for a memory of
// limit bytes.
func NewLoadStoreUnit(port BytePort, limit uint32) *LoadStoreUnit {
	return &LoadStoreUnit{port: port, limit: limit}
}

// Port returns the underlying byte port.
func (u *LoadStoreUnit) Port() BytePort {
	return u.port
}

func (u *LoadStoreUnit) check(addr uint32, size uint8) error {
	switch size {
	case 1, 2, 4:
	default:
		return fmt.Errorf("access size %d: %w", size, ErrUnalignedAccess)
	}

	if addr%uint32(size) != 0 {
		return fmt.Errorf("%d-byte access at 0x%X: %w", size, addr, ErrUnalignedAccess)
	}

	return nil
}

func (u *LoadStoreUnit) inRange(addr uint32) bool {
	return addr < u.limit
}

// Load reads size bytes at addr and widens them to 32 bits, sign-extending
// when signed is set.
func (u *LoadStoreUnit) Load(addr uint32, size uint8, signed bool) (int32, error) {
	if err := u.check(addr, size); err != nil {
		return 0, err
	}

	var v uint32
	for i := uint32(0); i < uint32(size); i++ {
		v <<= 8
		if u.inRange(addr + i) {
			v |= uint32(u.port.LoadByte(addr + i))
		}
	}

	if !signed {
		return int32(v), nil
	}

	switch size {
	case 1:
		return int32(int8(v)), nil
	case 2:
		return int32(int16(v)), nil
	default:
		return int32(v), nil
	}
}

// Store writes the low size bytes of value at addr, most significant first.
func (u *LoadStoreUnit) Store(addr uint32, size uint8, value int32) error {
	if err := u.check(addr, size); err != nil {
		return err
	}

	v := uint32(value)
	for i := uint32(0); i < uint32(size); i++ {
		if !u.inRange(addr + i) {
			continue
		}
		shift := 8 * (uint32(size) - 1 - i)
		u.port.StoreByte(addr+i, byte(v>>shift))
	}

	return nil
}

// FetchWord reads the instruction word at pc.
func (u *LoadStoreUnit) FetchWord(pc uint32) (uint32, error) {
	if pc%4 != 0 {
		return 0, fmt.Errorf("fetch at PC=0x%X: %w", pc, ErrUnalignedPC)
	}

	v, err := u.Load(pc, 4, false)
	if err != nil {
		return 0, fmt.Errorf("fetch at PC=0x%X: %w", pc, err)
	}

	return uint32(v), nil
}
