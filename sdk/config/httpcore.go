// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	ContentTypeJSONAPI = "application/vnd.api+json"
	ContentTypeBinary  = "application/octet-stream"
)

type CoreHTTP interface {
	BuildURL(resource string, params map[string]string) string
	Do(ctx context.Context, method, url string, data []byte) ([]byte, int, error)
	PostBinary(ctx context.Context, url string, body io.Reader, headers map[string]string) ([]byte, int, error)
}

// TokenProvider supplies the bearer token for every request.
type TokenProvider interface {
	GetToken() (string, error)
}

type StaticToken string

func (t StaticToken) GetToken() (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

var ErrNoToken = errors.New("no access token configured")

// HTTPError is a non-2xx answer of the remote API. Body is kept verbatim.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("remote responded with: %s - %s", e.Status, strings.TrimSpace(string(e.Body)))
	}
	return fmt.Sprintf("remote responded with: %s", e.Status)
}

// TransportError wraps a request that got no response at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "request failed: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

type httpCore struct {
	httpClient *http.Client
	coreConfig CoreConfig
	tokens     TokenProvider
}

func NewHTTPCore(httpClient *http.Client, coreConfig CoreConfig, tokens TokenProvider) CoreHTTP {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: coreConfig.Timeout}
	}
	if tokens == nil && coreConfig.AccessToken != "" {
		tokens = StaticToken(coreConfig.AccessToken)
	}
	return &httpCore{httpClient: httpClient, coreConfig: coreConfig, tokens: tokens}
}

func (httpCore *httpCore) BuildURL(resource string, params map[string]string) string {
	base := strings.TrimRight(httpCore.coreConfig.BaseURL, "/") + "/" + strings.TrimLeft(resource, "/")
	q := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	if len(q) > 0 {
		base += "?" + q.Encode()
	}
	return base
}

func (httpCore *httpCore) Do(ctx context.Context, method, url string, data []byte) ([]byte, int, error) {
	var body io.Reader
	headers := map[string]string{"Accept": ContentTypeJSONAPI}
	if data != nil {
		body = bytes.NewReader(data)
		headers["Content-Type"] = ContentTypeJSONAPI
	}
	return httpCore.send(ctx, method, url, body, headers)
}

func (httpCore *httpCore) PostBinary(ctx context.Context, url string, body io.Reader, headers map[string]string) ([]byte, int, error) {
	h := map[string]string{"Content-Type": ContentTypeBinary}
	for k, v := range headers {
		h[k] = v
	}
	return httpCore.send(ctx, http.MethodPost, url, body, h)
}

func (httpCore *httpCore) send(ctx context.Context, method, url string, body io.Reader, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if httpCore.tokens != nil {
		tok, err := httpCore.tokens.GetToken()
		if err != nil {
			return nil, 0, fmt.Errorf("token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := httpCore.httpClient.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	b, rerr := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return b, resp.StatusCode, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: b}
	}
	return b, resp.StatusCode, rerr
}
