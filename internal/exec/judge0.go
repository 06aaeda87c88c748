// Package exec submits code to a hosted Judge0 sandbox and returns the run
// result. It is a thin pass-through; the sandbox does the real work.
package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LanguageIDs maps the editor's language names to sandbox language ids.
var LanguageIDs = map[string]int{
	"python": 71,
	"cpp":    52,
	"java":   62,
}

type Result struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Time          string `json:"time"`
	Status        struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

// Client is the narrow contract with the execution sandbox:
// (source, language id, stdin) in, (stdout, stderr, status) out.
type Client interface {
	Submit(ctx context.Context, source string, languageID int, stdin string) (*Result, error)
}

type submission struct {
	LanguageID   int    `json:"language_id"`
	SourceCode   string `json:"source_code"`
	Stdin        string `json:"stdin"`
	CPUTimeLimit int    `json:"cpu_time_limit"`
	MemoryLimit  int    `json:"memory_limit"`
}

type HTTPClient struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: timeout},
	}
}

// Submit runs the source synchronously (wait=true) and decodes the result.
func (c *HTTPClient) Submit(ctx context.Context, source string, languageID int, stdin string) (*Result, error) {
	body, err := json.Marshal(submission{
		LanguageID:   languageID,
		SourceCode:   source,
		Stdin:        stdin,
		CPUTimeLimit: 2,
		MemoryLimit:  128000,
	})
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	url := c.baseURL + "/submissions/?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Auth-Token", c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sandbox rejected submission: status %d", resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode submission result: %w", err)
	}
	return &res, nil
}
