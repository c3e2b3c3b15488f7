package sources

import (
	"fmt"
	"io"
	"net/http"

	"github.com/mudler/xlog"
	sitemap "github.com/oxffaa/gopher-parse-sitemap"
	"jaytaylor.com/html2text"
)

// GetWebPage downloads a page and converts it to plain text.
func GetWebPage(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return html2text.FromString(string(body), html2text.Options{PrettyTables: true})
}

// GetWebSitemapContent walks a sitemap and returns the plain text of
// every page it lists. Pages that fail to download are skipped.
func GetWebSitemapContent(url string) (res []string, err error) {
	err = sitemap.ParseFromSite(url, func(e sitemap.Entry) error {
		xlog.Info("Sitemap page", "location", e.GetLocation())
		content, err := GetWebPage(e.GetLocation())
		if err == nil {
			res = append(res, content)
		}
		return nil
	})
	return
}
