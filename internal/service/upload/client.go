package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client uploads files to the hosting collaborator and returns public URLs.
type Client struct {
	baseURL    string
	preset     string
	httpClient *http.Client
}

// NewClient creates a new upload client.
func NewClient(baseURL, preset string) *Client {
	return &Client{
		baseURL: baseURL,
		preset:  preset,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// File describes a hosted file.
type File struct {
	URL       string `json:"url"`
	MediaType string `json:"mediaType"`
	Filename  string `json:"filename"`
}

type uploadResponse struct {
	SecureURL    string `json:"secure_url"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
}

// Upload sends one file as multipart form data and returns its public URL.
func (c *Client) Upload(ctx context.Context, filename, mediaType string, content io.Reader) (*File, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer pw.Close()
		if err := c.writeForm(mw, filename, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var uploaded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if uploaded.SecureURL == "" {
		return nil, fmt.Errorf("upload response missing url")
	}

	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return &File{
		URL:       uploaded.SecureURL,
		MediaType: mediaType,
		Filename:  filename,
	}, nil
}

func (c *Client) writeForm(mw *multipart.Writer, filename string, content io.Reader) error {
	if err := mw.WriteField("upload_preset", c.preset); err != nil {
		return fmt.Errorf("write preset field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy file content: %w", err)
	}
	return nil
}
