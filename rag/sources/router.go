package sources

import (
	"os"
	"strings"

	"github.com/mudler/xlog"
)

// SourceRouter fetches the content behind a URL, dispatching on its
// shape: sitemaps are walked page by page, git repositories are cloned,
// anything else is treated as a single web page.
func SourceRouter(url string) (string, error) {
	xlog.Info("Downloading content", "url", url)

	switch {
	case strings.HasSuffix(url, "sitemap.xml"):
		content, err := GetWebSitemapContent(url)
		if err != nil {
			return "", err
		}
		xlog.Info("Downloaded all content from sitemap", "url", url, "pages", len(content))
		return strings.Join(content, "\n"), nil
	case strings.HasSuffix(url, ".git"):
		return GetGitRepositoryContent(url, os.Getenv("GIT_PRIVATE_KEY"))
	}

	return GetWebPage(url)
}
