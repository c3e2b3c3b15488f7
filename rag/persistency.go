package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/docintel/docintel/pkg/chunk"
)

// PersistentKB is a knowledge base whose list of ingested files
// survives restarts. Files are copied into an asset directory and the
// file list is tracked in a JSON state file, so the vector store can be
// rebuilt from disk at any time.
type PersistentKB struct {
	Engine
	sync.Mutex
	files    []string
	sources  []ExternalSource
	path     string
	assetDir string
	splitter *chunk.Splitter
}

type kbState struct {
	Files   []string         `json:"files"`
	Sources []ExternalSource `json:"external_sources,omitempty"`
}

func loadState(path string) (kbState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kbState{}, err
	}

	state := kbState{}
	err = json.Unmarshal(data, &state)
	return state, err
}

// NewPersistentCollectionKB opens the knowledge base described by
// stateFile, creating a fresh one if no state exists yet.
func NewPersistentCollectionKB(stateFile, assetDir string, store Engine, splitter *chunk.Splitter) (*PersistentKB, error) {
	if err := os.MkdirAll(assetDir, 0755); err != nil {
		return nil, err
	}

	if _, err := os.Stat(stateFile); err != nil {
		persistentKB := &PersistentKB{
			files:    []string{},
			path:     stateFile,
			Engine:   store,
			assetDir: assetDir,
			splitter: splitter,
		}
		persistentKB.Lock()
		defer persistentKB.Unlock()
		return persistentKB, persistentKB.save()
	}

	state, err := loadState(stateFile)
	if err != nil {
		return nil, err
	}

	return &PersistentKB{
		Engine:   store,
		files:    state.Files,
		sources:  state.Sources,
		path:     stateFile,
		splitter: splitter,
		assetDir: assetDir,
	}, nil
}

// Reset clears the engine, the copied assets and the state file.
func (db *PersistentKB) Reset() error {
	db.Lock()
	for _, f := range db.files {
		os.Remove(filepath.Join(db.assetDir, f))
	}
	db.files = []string{}
	db.sources = []ExternalSource{}
	db.save()
	db.Unlock()

	return db.Engine.Reset()
}

func (db *PersistentKB) save() error {
	data, err := json.Marshal(kbState{Files: db.files, Sources: db.sources})
	if err != nil {
		return err
	}

	return os.WriteFile(db.path, data, 0644)
}

// repopulate rebuilds the engine from the files in the asset directory.
func (db *PersistentKB) repopulate() error {
	if err := db.Engine.Reset(); err != nil {
		return fmt.Errorf("failed to reset engine: %w", err)
	}

	for _, f := range db.files {
		if err := db.storeFile(filepath.Join(db.assetDir, f), nil); err != nil {
			return fmt.Errorf("failed to store file: %w", err)
		}
	}

	return nil
}

// ListEntries returns the names of the ingested files.
func (db *PersistentKB) ListEntries() []string {
	db.Lock()
	defer db.Unlock()

	entries := make([]string, len(db.files))
	copy(entries, db.files)
	return entries
}

// EntryExists reports whether a file with the same base name was
// already ingested.
func (db *PersistentKB) EntryExists(entry string) bool {
	db.Lock()
	defer db.Unlock()

	entry = filepath.Base(entry)
	for _, e := range db.files {
		if e == entry {
			return true
		}
	}

	return false
}

// Store copies a file into the asset directory, chunks it and stores
// the chunks in the engine. It returns the number of chunks created.
func (db *PersistentKB) Store(entry string, metadata map[string]string) (int, error) {
	db.Lock()
	defer db.Unlock()

	if _, err := os.Stat(entry); err != nil {
		return 0, fmt.Errorf("file does not exist: %s", entry)
	}

	if err := copyFile(entry, db.assetDir); err != nil {
		return 0, fmt.Errorf("failed to copy file: %w", err)
	}

	fileName := filepath.Base(entry)
	assetPath := filepath.Join(db.assetDir, fileName)

	// The entry is recorded only once its chunks made it into the
	// engine, a failed ingestion must stay retryable.
	chunks, err := db.chunkAndStore(assetPath, metadata)
	if err != nil {
		os.Remove(assetPath)
		return 0, fmt.Errorf("failed to store file: %w", err)
	}

	db.files = append(db.files, fileName)
	return chunks, db.save()
}

// StoreOrReplace is like Store but first removes a previously ingested
// file with the same name.
func (db *PersistentKB) StoreOrReplace(entry string, metadata map[string]string) (int, error) {
	if db.EntryExists(entry) {
		if err := db.RemoveEntry(filepath.Base(entry)); err != nil {
			return 0, err
		}
	}

	return db.Store(entry, metadata)
}

func (db *PersistentKB) storeFile(path string, metadata map[string]string) error {
	_, err := db.chunkAndStore(path, metadata)
	return err
}

func (db *PersistentKB) chunkAndStore(path string, metadata map[string]string) (int, error) {
	text, err := ExtractText(path)
	if err != nil {
		return 0, err
	}

	pieces, err := db.splitter.Split(text)
	if err != nil {
		return 0, err
	}

	meta := map[string]string{"source": filepath.Base(path), "type": "file"}
	for k, v := range metadata {
		meta[k] = v
	}

	if len(pieces) == 0 {
		return 0, nil
	}

	if err := db.Engine.StoreDocuments(pieces, meta); err != nil {
		return 0, err
	}

	return len(pieces), nil
}

// RemoveEntry removes a file from the knowledge base. The engine is
// repopulated from scratch since chromem does not support deleting
// single entries.
func (db *PersistentKB) RemoveEntry(entry string) error {
	db.Lock()
	defer db.Unlock()

	found := false
	for i, e := range db.files {
		if e == entry {
			db.files = append(db.files[:i], db.files[i+1:]...)
			os.Remove(filepath.Join(db.assetDir, e))
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("entry not found: %s", entry)
	}

	if err := db.save(); err != nil {
		return err
	}

	return db.repopulate()
}

// GetExternalSources returns the registered external sources.
func (db *PersistentKB) GetExternalSources() []ExternalSource {
	db.Lock()
	defer db.Unlock()

	sources := make([]ExternalSource, len(db.sources))
	copy(sources, db.sources)
	return sources
}

// AddExternalSource registers an external source in the state file.
func (db *PersistentKB) AddExternalSource(source ExternalSource) error {
	db.Lock()
	defer db.Unlock()

	for _, s := range db.sources {
		if s.URL == source.URL {
			return fmt.Errorf("source already exists: %s", source.URL)
		}
	}

	db.sources = append(db.sources, source)
	return db.save()
}

// RemoveExternalSource unregisters an external source.
func (db *PersistentKB) RemoveExternalSource(url string) error {
	db.Lock()
	defer db.Unlock()

	for i, s := range db.sources {
		if s.URL == url {
			db.sources = append(db.sources[:i], db.sources[i+1:]...)
			return db.save()
		}
	}

	return fmt.Errorf("source not found: %s", url)
}

func copyFile(src, dst string) error {
	in, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dst, filepath.Base(src)), in, 0644)
}
