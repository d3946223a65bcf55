// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/retrieval-engine/internal/httputil"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

// Remote encodes text through an HTTP embedding service. The service
// accepts {"model": ..., "input": [...]} and returns
// {"embeddings": [[...], ...]} with one vector per input, in order.
type Remote struct {
	Client *http.Client
	URL    string
	Model  string
	APIKey string

	// UserAgent is sent with every request.
	UserAgent string

	dim int
}

// NewRemote builds a remote encoder from config. The API key may be empty
// for unauthenticated services.
func NewRemote(cfg types.EncoderConfig) (*Remote, error) {
	if cfg.RemoteURL == "" {
		return nil, fmt.Errorf("remote encoder requires a service URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Remote{
		Client:    &http.Client{Timeout: timeout},
		URL:       cfg.RemoteURL,
		Model:     cfg.RemoteModel,
		APIKey:    cfg.RemoteAPIKey,
		UserAgent: cfg.UserAgent,
	}, nil
}

// Dimension returns the vector length observed on the last call, or zero
// before the first call.
func (r *Remote) Dimension() int { return r.dim }

type embedRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EncodeQueries implements Encoder.
func (r *Remote) EncodeQueries(ctx context.Context, texts []string) ([][]float32, error) {
	return r.encode(ctx, texts)
}

// EncodePassages implements Encoder. Title and text are joined with a
// newline, matching how the local encoder folds titles in.
func (r *Remote) EncodePassages(ctx context.Context, passages []types.Passage) ([][]float32, error) {
	texts := make([]string, len(passages))
	for i, p := range passages {
		if p.Title != "" {
			texts[i] = p.Title + "\n" + p.Text
		} else {
			texts[i] = p.Text
		}
	}
	return r.encode(ctx, texts)
}

func (r *Remote) encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Model: r.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, r.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("embedding service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding service returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(er.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs",
			len(er.Embeddings), len(texts))
	}

	for _, vec := range er.Embeddings {
		if len(vec) == 0 {
			return nil, fmt.Errorf("embedding service returned an empty vector")
		}
		if r.dim == 0 {
			r.dim = len(vec)
		}
		if len(vec) != r.dim {
			return nil, fmt.Errorf("embedding service returned mixed dimensions %d and %d",
				r.dim, len(vec))
		}
		Normalize(vec)
	}
	return er.Embeddings, nil
}
