package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mudler/xlog"

	"github.com/docintel/docintel/rag/sources"
)

// ExternalSource is a URL whose content is periodically re-ingested
// into a collection.
type ExternalSource struct {
	URL            string        `json:"url"`
	UpdateInterval time.Duration `json:"update_interval"`
	LastUpdate     time.Time     `json:"last_update"`
}

// SourceManager keeps the external sources of all collections fresh.
type SourceManager struct {
	sources     map[string][]ExternalSource
	collections map[string]*PersistentKB
	mu          sync.RWMutex
}

// NewSourceManager creates a new source manager.
func NewSourceManager() *SourceManager {
	return &SourceManager{
		sources:     make(map[string][]ExternalSource),
		collections: make(map[string]*PersistentKB),
	}
}

// RegisterCollection registers a collection and schedules an immediate
// refresh of its stored sources.
func (sm *SourceManager) RegisterCollection(name string, collection *PersistentKB) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.collections[name] = collection

	for _, source := range collection.GetExternalSources() {
		sm.sources[name] = append(sm.sources[name], source)
		go sm.updateSource(name, source, collection)
	}
}

// AddSource adds a new external source to a collection and fetches it
// right away.
func (sm *SourceManager) AddSource(collectionName, url string, updateInterval time.Duration) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	collection, exists := sm.collections[collectionName]
	if !exists {
		return fmt.Errorf("collection %s not found", collectionName)
	}

	source := ExternalSource{
		URL:            url,
		UpdateInterval: updateInterval,
		LastUpdate:     time.Now(),
	}

	if err := collection.AddExternalSource(source); err != nil {
		return err
	}

	sm.sources[collectionName] = append(sm.sources[collectionName], source)
	go sm.updateSource(collectionName, source, collection)

	return nil
}

// RemoveSource removes an external source and its ingested content from
// a collection.
func (sm *SourceManager) RemoveSource(collectionName, url string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	collection, exists := sm.collections[collectionName]
	if !exists {
		return fmt.Errorf("collection %s not found", collectionName)
	}

	if err := collection.RemoveExternalSource(url); err != nil {
		return err
	}

	if err := collection.RemoveEntry(sourceFileName(collectionName, url)); err != nil {
		xlog.Warn("Failed to remove source entry", "url", url, "error", err)
	}

	srcs := sm.sources[collectionName]
	for i, s := range srcs {
		if s.URL == url {
			sm.sources[collectionName] = append(srcs[:i], srcs[i+1:]...)
			break
		}
	}

	return nil
}

func sourceFileName(collectionName, url string) string {
	return fmt.Sprintf("source-%s-%s.txt", collectionName, sanitizeURL(url))
}

// updateSource fetches a single source and stores its content in the
// collection, replacing the previous snapshot.
func (sm *SourceManager) updateSource(collectionName string, source ExternalSource, collection *PersistentKB) {
	xlog.Info("Updating source", "url", source.URL)

	content, err := sources.SourceRouter(source.URL)
	if err != nil {
		xlog.Error("Error updating source", "url", source.URL, "error", err)
		return
	}

	tmpFile := filepath.Join(os.TempDir(), sourceFileName(collectionName, source.URL))
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		xlog.Error("Error creating temporary file", "error", err)
		return
	}
	defer os.Remove(tmpFile)

	if _, err := collection.StoreOrReplace(tmpFile, map[string]string{"url": source.URL, "type": "external"}); err != nil {
		xlog.Error("Error storing content in collection", "error", err)
		return
	}

	sm.touch(collectionName, source.URL)
	xlog.Info("Source updated", "url", source.URL, "collection", collectionName)
}

func (sm *SourceManager) touch(collectionName, url string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for i, s := range sm.sources[collectionName] {
		if s.URL == url {
			sm.sources[collectionName][i].LastUpdate = time.Now()
			break
		}
	}
}

// sanitizeURL converts a URL into a filesystem-safe string.
func sanitizeURL(url string) string {
	replacer := strings.NewReplacer(
		"://", "-",
		"/", "-",
		"?", "-",
		"&", "-",
		"=", "-",
		"#", "-",
		"@", "-",
		":", "-",
		".", "-",
		"+", "-",
		" ", "-",
	)

	sanitized := replacer.Replace(strings.ToLower(url))

	for strings.Contains(sanitized, "--") {
		sanitized = strings.ReplaceAll(sanitized, "--", "-")
	}
	sanitized = strings.Trim(sanitized, "-")

	// Common filesystem name limit.
	if len(sanitized) > 255 {
		sanitized = sanitized[:255]
	}

	return sanitized
}

// Start runs the periodic refresh loop in the background.
func (sm *SourceManager) Start() {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			sm.mu.RLock()
			for collectionName, srcs := range sm.sources {
				collection := sm.collections[collectionName]
				for _, source := range srcs {
					if time.Since(source.LastUpdate) >= source.UpdateInterval {
						go sm.updateSource(collectionName, source, collection)
					}
				}
			}
			sm.mu.RUnlock()
		}
	}()
}
