package lists

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// TokenProvider hands out the write token (request digest) that every
// create, update and delete must carry.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to TokenProvider.
type TokenProviderFunc func(ctx context.Context) (string, error)

func (f TokenProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

type contextInfoResponse struct {
	D struct {
		GetContextWebInformation struct {
			FormDigestValue string `json:"FormDigestValue"`
		} `json:"GetContextWebInformation"`
	} `json:"d"`
}

// ContextInfoTokenProvider fetches a fresh digest from /_api/contextinfo on
// every call. Nothing is cached.
type ContextInfoTokenProvider struct {
	client *SharePointClient
}

// Token posts to the contextinfo endpoint and returns the form digest.
func (p *ContextInfoTokenProvider) Token(ctx context.Context) (string, error) {
	const op = "contextinfo"
	c := p.client

	req, err := c.newRequest(ctx, http.MethodPost, c.siteURL+"/_api/contextinfo", nil)
	if err != nil {
		return "", fmt.Errorf("create contextinfo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportErr(op, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", transportErr(op, resp.StatusCode, string(body), nil)
	}

	var info contextInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", transportErr(op, resp.StatusCode, "", fmt.Errorf("decode contextinfo: %w", err))
	}
	digest := info.D.GetContextWebInformation.FormDigestValue
	if digest == "" {
		return "", transportErr(op, resp.StatusCode, "", fmt.Errorf("contextinfo returned an empty form digest"))
	}
	return digest, nil
}
