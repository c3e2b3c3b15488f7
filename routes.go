package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"

	"github.com/docintel/docintel/pkg/chunk"
	"github.com/docintel/docintel/rag"
)

// collectionRegistry maps collection names to agents. Handlers run on
// concurrent request goroutines, so every access goes through the lock.
type collectionRegistry struct {
	mu     sync.RWMutex
	agents map[string]*rag.Agent
}

func newCollectionRegistry() *collectionRegistry {
	return &collectionRegistry{agents: map[string]*rag.Agent{}}
}

func (r *collectionRegistry) Get(name string) (*rag.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[name]
	return agent, ok
}

// Add registers an agent under name. It reports false when the name is
// already taken.
func (r *collectionRegistry) Add(name string, agent *rag.Agent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[name]; exists {
		return false
	}
	r.agents[name] = agent
	return true
}

// openStoredCollections reopens every collection that left a state file
// behind, so API-created collections survive restarts.
func openStoredCollections(cfg *appConfig, client *openai.Client, splitter *chunk.Splitter, collections *collectionRegistry, sourceManager *rag.SourceManager) {
	for _, name := range rag.ListAllCollections(cfg.StateDir) {
		if _, exists := collections.Get(name); exists {
			continue
		}

		kb, err := newCollection(cfg, client, name, splitter)
		if err != nil {
			xlog.Error("Failed to reopen collection", "collection", name, "error", err)
			continue
		}

		collections.Add(name, rag.NewAgent(client, kb, cfg.ChatModel, cfg.DataDir, cfg.TopK))
		sourceManager.RegisterCollection(name, kb)
	}
}

func startAPI(cfg *appConfig, client *openai.Client, splitter *chunk.Splitter, defaultAgent *rag.Agent, sourceManager *rag.SourceManager) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	collections := newCollectionRegistry()
	collections.Add(cfg.Collection, defaultAgent)
	openStoredCollections(cfg, client, splitter, collections, sourceManager)

	registerStaticHandler(e)

	e.POST("/api/collections", createCollection(collections, cfg, client, splitter, sourceManager))
	e.GET("/api/collections", listCollections(cfg))
	e.GET("/api/collections/:name/entries", listEntries(collections))
	e.GET("/api/collections/:name/stats", stats(collections))
	e.POST("/api/collections/:name/upload", uploadFile(collections))
	e.POST("/api/collections/:name/search", search(collections))
	e.POST("/api/collections/:name/chat", chat(collections))
	e.POST("/api/collections/:name/reset", reset(collections))
	e.DELETE("/api/collections/:name/entry/delete", deleteEntry(collections))
	e.POST("/api/collections/:name/sources", addSource(collections, sourceManager))
	e.DELETE("/api/collections/:name/sources", removeSource(collections, sourceManager))

	e.Logger.Fatal(e.Start(cfg.ListenAddress))
}

func errorMessage(message string) map[string]string {
	return map[string]string{"error": message}
}

// createCollection handles creating a new collection.
func createCollection(collections *collectionRegistry, cfg *appConfig, client *openai.Client, splitter *chunk.Splitter, sourceManager *rag.SourceManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		type request struct {
			Name string `json:"name"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.Name == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if _, exists := collections.Get(r.Name); exists {
			return c.JSON(http.StatusConflict, errorMessage("Collection already exists"))
		}

		kb, err := newCollection(cfg, client, r.Name, splitter)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create collection: "+err.Error()))
		}

		if !collections.Add(r.Name, rag.NewAgent(client, kb, cfg.ChatModel, cfg.DataDir, cfg.TopK)) {
			return c.JSON(http.StatusConflict, errorMessage("Collection already exists"))
		}
		sourceManager.RegisterCollection(r.Name, kb)

		return c.JSON(http.StatusCreated, map[string]string{"name": r.Name})
	}
}

// listCollections returns all known collections.
func listCollections(cfg *appConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, rag.ListAllCollections(cfg.StateDir))
	}
}

func listEntries(collections *collectionRegistry) echo.HandlerFunc {
	return func(c echo.Context) error {
		agent, exists := collections.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}
		return c.JSON(http.StatusOK, agent.KB().ListEntries())
	}
}

func stats(collections *collectionRegistry) echo.HandlerFunc {
	return func(c echo.Context) error {
		agent, exists := collections.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		type response struct {
			rag.Stats
			Entries     int  `json:"entries"`
			ChunksTotal int  `json:"chunks_total"`
			Initialized bool `json:"initialized"`
		}

		return c.JSON(http.StatusOK, response{
			Stats:       agent.Stats(),
			Entries:     len(agent.KB().ListEntries()),
			ChunksTotal: agent.KB().Count(),
			Initialized: agent.Initialized(),
		})
	}
}

// uploadFile stores an uploaded document in a collection.
func uploadFile(collections *collectionRegistry) echo.HandlerFunc {
	return func(c echo.Context) error {
		agent, exists := collections.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		file, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to read file: "+err.Error()))
		}

		f, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to open file: "+err.Error()))
		}
		defer f.Close()

		tmpDir, err := os.MkdirTemp("", "upload-*")
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create temporary directory"))
		}
		defer os.RemoveAll(tmpDir)

		filePath := filepath.Join(tmpDir, filepath.Base(file.Filename))
		out, err := os.Create(filePath)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create file"))
		}

		if _, err := io.Copy(out, f); err != nil {
			out.Close()
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to copy file"))
		}
		out.Close()

		chunks, err := agent.KB().StoreOrReplace(filePath, nil)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to store file: "+err.Error()))
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"entry":  filepath.Base(file.Filename),
			"chunks": chunks,
		})
	}
}

func search(collections *collectionRegistry) echo.HandlerFunc {
	return func(c echo.Context) error {
		agent, exists := collections.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		type request struct {
			Query      string `json:"query"`
			MaxResults int    `json:"max_results"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if r.MaxResults == 0 {
			r.MaxResults = 5
		}

		results, err := agent.Search(r.Query, r.MaxResults)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to search collection"))
		}

		return c.JSON(http.StatusOK, results)
	}
}

func chat(collections *collectionRegistry) echo.HandlerFunc {
	return func(c echo.Context) error {
		agent, exists := collections.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		type request struct {
			Question string `json:"question"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.Question == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		answer, err := agent.Ask(c.Request().Context(), r.Question)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to answer question: "+err.Error()))
		}

		return c.JSON(http.StatusOK, map[string]string{"answer": answer})
	}
}

func reset(collections *collectionRegistry) echo.HandlerFunc {
	return func(c echo.Context) error {
		agent, exists := collections.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		if err := agent.KB().Reset(); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to reset collection"))
		}

		return c.NoContent(http.StatusOK)
	}
}

func deleteEntry(collections *collectionRegistry) echo.HandlerFunc {
	return func(c echo.Context) error {
		agent, exists := collections.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		type request struct {
			Entry string `json:"entry"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if err := agent.KB().RemoveEntry(r.Entry); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to remove entry"))
		}

		return c.JSON(http.StatusOK, agent.KB().ListEntries())
	}
}

func addSource(collections *collectionRegistry, sourceManager *rag.SourceManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")
		if _, exists := collections.Get(name); !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		type request struct {
			URL            string `json:"url"`
			UpdateInterval string `json:"update_interval"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.URL == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		interval := time.Hour
		if r.UpdateInterval != "" {
			parsed, err := time.ParseDuration(r.UpdateInterval)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorMessage("Invalid update_interval"))
			}
			interval = parsed
		}

		if err := sourceManager.AddSource(name, r.URL, interval); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to add source: "+err.Error()))
		}

		return c.JSON(http.StatusCreated, map[string]string{"url": r.URL})
	}
}

func removeSource(collections *collectionRegistry, sourceManager *rag.SourceManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")
		if _, exists := collections.Get(name); !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Collection not found"))
		}

		type request struct {
			URL string `json:"url"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.URL == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if err := sourceManager.RemoveSource(name, r.URL); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to remove source: "+err.Error()))
		}

		return c.NoContent(http.StatusOK)
	}
}
