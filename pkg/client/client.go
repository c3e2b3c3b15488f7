package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/docintel/docintel/rag/types"
)

// Client talks to the document intelligence HTTP API.
type Client struct {
	BaseURL string

	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// CreateCollection creates a new collection.
func (c *Client) CreateCollection(name string) error {
	type request struct {
		Name string `json:"name"`
	}

	payload, err := json.Marshal(request{Name: name})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/collections", c.BaseURL),
		"application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return errors.New("failed to create collection")
	}

	return nil
}

// ListCollections lists all collections.
func (c *Client) ListCollections() ([]string, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/api/collections", c.BaseURL))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to list collections")
	}

	var collections []string
	if err := json.NewDecoder(resp.Body).Decode(&collections); err != nil {
		return nil, err
	}

	return collections, nil
}

// Search retrieves the most relevant chunks for a query.
func (c *Client) Search(collection, query string, maxResults int) ([]types.Result, error) {
	type request struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}

	payload, err := json.Marshal(request{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/collections/%s/search", c.BaseURL, collection),
		"application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to search collection")
	}

	var results []types.Result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}

	return results, nil
}

// Chat asks a question about the documents in a collection.
func (c *Client) Chat(collection, question string) (string, error) {
	type request struct {
		Question string `json:"question"`
	}

	payload, err := json.Marshal(request{Question: question})
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/collections/%s/chat", c.BaseURL, collection),
		"application/json", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Answer string `json:"answer"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to chat: %s", body.Error)
	}

	return body.Answer, nil
}

// Stats returns the ingestion statistics of a collection.
func (c *Client) Stats(collection string) (map[string]interface{}, error) {
	resp, err := c.httpClient.Get(
		fmt.Sprintf("%s/api/collections/%s/stats", c.BaseURL, collection))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to get stats")
	}

	stats := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}

	return stats, nil
}

// Store uploads a file to a collection.
func (c *Client) Store(collection, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/collections/%s/upload", c.BaseURL, collection), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("failed to upload file")
	}

	return nil
}

// Reset wipes a collection.
func (c *Client) Reset(collection string) error {
	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/collections/%s/reset", c.BaseURL, collection),
		"application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("failed to reset collection")
	}

	return nil
}
