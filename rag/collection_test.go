package rag_test

import (
	"os"
	"path/filepath"

	. "github.com/docintel/docintel/rag"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Collection", func() {
	Describe("ListAllCollections", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "collection_test_*")
			Expect(err).ToNot(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tempDir)
		})

		It("should return an empty list when the directory is empty", func() {
			Expect(ListAllCollections(tempDir)).To(BeEmpty())
		})

		It("should list collections from state files", func() {
			Expect(os.WriteFile(filepath.Join(tempDir, "collection-docs.json"), []byte("{}"), 0644)).To(Succeed())
			Expect(ListAllCollections(tempDir)).To(ContainElement("docs"))
		})

		It("should ignore files without the collection prefix", func() {
			Expect(os.WriteFile(filepath.Join(tempDir, "other.json"), []byte("{}"), 0644)).To(Succeed())
			Expect(ListAllCollections(tempDir)).To(BeEmpty())
		})

		It("should handle a non-existent directory", func() {
			Expect(ListAllCollections(filepath.Join(tempDir, "missing"))).To(BeEmpty())
		})
	})
})
