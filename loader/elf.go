// Package loader reads MIPS32 programs from big-endian ELF executables and
// from hex-word text files.
package loader

import (
	"debug/elf"
	"fmt"
	"io"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the byte address where this segment is loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// End returns the first address past the segment in memory.
func (s Segment) End() uint32 {
	return s.VirtAddr + s.MemSize
}

// Program is a loaded image ready to be copied into simulator memory.
type Program struct {
	// EntryPoint is the address where execution begins.
	EntryPoint uint32
	// Segments contains all loadable segments.
	Segments []Segment
}

// TextEnd returns the first address past the last executable segment's
// file contents, which is where fetch stops. Without executable segments
// every segment counts.
func (p *Program) TextEnd() uint32 {
	var end, anyEnd uint32
	for _, seg := range p.Segments {
		e := seg.VirtAddr + uint32(len(seg.Data))
		if e > anyEnd {
			anyEnd = e
		}
		if seg.Flags&SegmentFlagExecute != 0 && e > end {
			end = e
		}
	}
	if end == 0 {
		return anyEnd
	}
	return end
}

// FromWords builds a single executable segment at address 0 holding words
// in big-endian order.
func FromWords(words []uint32) *Program {
	data := make([]byte, len(words)*4)
	for i, w := range words {
		data[i*4] = byte(w >> 24)
		data[i*4+1] = byte(w >> 16)
		data[i*4+2] = byte(w >> 8)
		data[i*4+3] = byte(w)
	}

	return &Program{
		Segments: []Segment{{
			Data:    data,
			MemSize: uint32(len(data)),
			Flags:   SegmentFlagRead | SegmentFlagExecute,
		}},
	}
}

// Load parses a MIPS32 big-endian ELF executable.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}
	if f.Data != elf.ELFDATA2MSB {
		return nil, fmt.Errorf("not a big-endian ELF file")
	}
	if f.Machine != elf.EM_MIPS {
		return nil, fmt.Errorf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}
