package chunk_test

import (
	"strings"

	. "github.com/docintel/docintel/pkg/chunk"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Splitter", func() {
	Describe("Split", func() {
		It("should split text into chunks", func() {
			splitter := NewSplitter(20, 0)
			chunks, err := splitter.Split("This is a test. This is another sentence. And one more.")
			Expect(err).ToNot(HaveOccurred())
			Expect(chunks).ToNot(BeEmpty())
		})

		It("should handle empty text", func() {
			splitter := NewSplitter(100, 20)
			chunks, err := splitter.Split("")
			Expect(err).ToNot(HaveOccurred())
			Expect(chunks).To(BeEmpty())
		})

		It("should respect the max chunk size", func() {
			splitter := NewSplitter(50, 10)
			text := "This is a very long text that should be split into multiple chunks. " +
				"Each chunk should not exceed the maximum size specified. " +
				"This ensures that the text is properly divided for processing."
			chunks, err := splitter.Split(text)
			Expect(err).ToNot(HaveOccurred())
			Expect(chunks).ToNot(BeEmpty())
			for _, chunk := range chunks {
				Expect(len(chunk)).To(BeNumerically("<=", 50))
			}
		})

		It("should keep text smaller than the chunk size whole", func() {
			splitter := NewSplitter(100, 20)
			chunks, err := splitter.Split("Short text")
			Expect(err).ToNot(HaveOccurred())
			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0]).To(Equal("Short text"))
		})

		It("should prefer paragraph boundaries", func() {
			splitter := NewSplitter(30, 0)
			chunks, err := splitter.Split("First paragraph.\n\nSecond paragraph.\n\nThird paragraph.")
			Expect(err).ToNot(HaveOccurred())
			Expect(chunks).To(ContainElement("First paragraph."))
		})

		It("should overlap consecutive chunks", func() {
			splitter := NewSplitter(40, 15)
			words := []string{}
			for i := 0; i < 20; i++ {
				words = append(words, "alpha beta gamma")
			}
			chunks, err := splitter.Split(strings.Join(words, " "))
			Expect(err).ToNot(HaveOccurred())
			Expect(len(chunks)).To(BeNumerically(">", 1))
		})

		It("should fall back to defaults for bad parameters", func() {
			splitter := NewSplitter(0, -1)
			chunks, err := splitter.Split("hello world")
			Expect(err).ToNot(HaveOccurred())
			Expect(chunks).To(HaveLen(1))
		})
	})
})
