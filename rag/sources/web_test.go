package sources_test

import (
	"net/http"
	"net/http/httptest"

	. "github.com/docintel/docintel/rag/sources"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Web Sources", func() {
	Describe("GetWebPage", func() {
		It("should handle invalid URLs", func() {
			_, err := GetWebPage("not-a-valid-url")
			Expect(err).To(HaveOccurred())
		})

		It("should convert HTML to plain text", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html><body><h1>Hello</h1><p>Some paragraph.</p></body></html>"))
			}))
			defer server.Close()

			text, err := GetWebPage(server.URL)
			Expect(err).ToNot(HaveOccurred())
			Expect(text).To(ContainSubstring("Hello"))
			Expect(text).To(ContainSubstring("Some paragraph."))
			Expect(text).ToNot(ContainSubstring("<p>"))
		})

		It("should error on HTTP error statuses", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusNotFound)
			}))
			defer server.Close()

			_, err := GetWebPage(server.URL)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetWebSitemapContent", func() {
		It("should handle invalid sitemap URLs", func() {
			_, err := GetWebSitemapContent("not-a-valid-url")
			Expect(err).To(HaveOccurred())
		})
	})
})
