package interfaces

import "github.com/docintel/docintel/rag/types"

// Engine defines the contract a vector/search backend has to fulfill.
type Engine interface {
	Store(s string, meta map[string]string) error
	StoreDocuments(s []string, meta map[string]string) error
	Reset() error
	Search(s string, similarEntries int) ([]types.Result, error)
	Count() int
}
