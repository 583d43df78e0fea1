package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadHex reads one 32-bit instruction word per line, written in hex with
// or without a 0x prefix. Blank lines and text after '#' are ignored.
func LoadHex(r io.Reader) ([]uint32, error) {
	var words []uint32

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		line = strings.TrimPrefix(strings.TrimPrefix(line, "0x"), "0X")
		w, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid word %q: %w", lineNo, line, err)
		}
		words = append(words, uint32(w))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hex words: %w", err)
	}

	return words, nil
}

// LoadHexFile reads a hex-word program from path.
func LoadHexFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hex file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadHex(f)
}
