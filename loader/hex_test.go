package loader_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipssim/loader"
)

var _ = Describe("Hex Loader", func() {
	It("should parse words with and without prefixes", func() {
		words, err := loader.LoadHex(strings.NewReader(
			"20080005\n0x20090007  # ADDI $t1, $zero, 7\n\n# comment only\n  0X01095020\n"))

		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(Equal([]uint32{0x20080005, 0x20090007, 0x01095020}))
	})

	It("should report the offending line", func() {
		_, err := loader.LoadHex(strings.NewReader("20080005\nzz\n"))
		Expect(err).To(MatchError(ContainSubstring("line 2")))
	})

	It("should reject words wider than 32 bits", func() {
		_, err := loader.LoadHex(strings.NewReader("123456789\n"))
		Expect(err).To(HaveOccurred())
	})

	It("should return nothing for an empty input", func() {
		words, err := loader.LoadHex(strings.NewReader(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(BeEmpty())
	})

	It("should read from a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "prog.hex")
		Expect(os.WriteFile(path, []byte("0000000c\n"), 0644)).To(Succeed())

		words, err := loader.LoadHexFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(Equal([]uint32{0x0C}))

		_, err = loader.LoadHexFile(filepath.Join(filepath.Dir(path), "missing.hex"))
		Expect(err).To(MatchError(ContainSubstring("failed to open")))
	})
})
