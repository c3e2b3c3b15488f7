package chunk

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the default maximum chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the default overlap between consecutive chunks.
	DefaultChunkOverlap = 200
)

// Splitter splits document text into overlapping chunks suitable for
// embedding and retrieval. Splitting is delegated to langchaingo's
// recursive character splitter.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

// NewSplitter creates a Splitter with the given chunk size and overlap.
// Non-positive values fall back to the defaults.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 5
		}
	}

	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// Split splits text into chunks, dropping chunks that are empty after
// trimming whitespace.
func (s *Splitter) Split(text string) ([]string, error) {
	pieces, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p) == "" {
			continue
		}
		chunks = append(chunks, p)
	}

	return chunks, nil
}
