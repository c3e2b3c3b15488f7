package rag

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/mudler/xlog"
)

// ingestibleExtensions are the file types the knowledge base knows how
// to extract text from.
var ingestibleExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// ListIngestibleFiles returns the ingestible files in dir, sorted by
// name. It is an error if the directory does not exist or contains no
// ingestible files.
func ListIngestibleFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data directory %s not found: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ingestibleExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no ingestible files found in %s", dir)
	}

	return files, nil
}

// ExtractText extracts the plain text of a single document. PDF
// extraction is delegated to dslipak/pdf, text and markdown files are
// read as-is.
func ExtractText(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md":
		xlog.Debug("Reading text file", "file", path)
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		return string(content), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	b, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	if _, err := buf.ReadFrom(b); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// CountPDFPages returns the number of pages in a PDF, or 1 for any
// other ingestible file.
func CountPDFPages(path string) int {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return 1
	}

	r, err := pdf.Open(path)
	if err != nil {
		return 1
	}

	return r.NumPage()
}
