// Package e2e drives a running kycflow server through its public HTTP API.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext carries the HTTP client and per-scenario state shared by steps.
type TestContext struct {
	baseURL string
	client  *http.Client

	lastStatus int
	lastBody   []byte

	token    string
	email    string
	password string
	kycID    string
}

func NewTestContext() *TestContext {
	base := os.Getenv("KYCFLOW_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears scenario state between scenarios.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.token = ""
	tc.email = ""
	tc.password = ""
	tc.kycID = ""
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.sendJSON(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.sendJSON(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

// Upload posts a multipart document with the given type tag.
func (tc *TestContext) Upload(docType, filename string, content []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("type", docType); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, tc.baseURL+"/kyc/upload", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return tc.do(req)
}

func (tc *TestContext) sendJSON(method, path string, body any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

// GetResponseField reads a dotted path such as "kyc.status" from the last
// JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var v any
	if err := json.Unmarshal(tc.lastBody, &v); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w (body=%s)", err, tc.lastBody)
	}
	for _, key := range strings.Split(field, ".") {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %v is not an object", field, v)
		}
		if v, ok = obj[key]; !ok {
			return nil, fmt.Errorf("field %q missing in %s", field, tc.lastBody)
		}
	}
	return v, nil
}

func (tc *TestContext) GetLastResponseStatus() int  { return tc.lastStatus }
func (tc *TestContext) GetLastResponseBody() []byte { return tc.lastBody }

func (tc *TestContext) SetAccessToken(token string) { tc.token = token }
func (tc *TestContext) ClearAccessToken()           { tc.token = "" }

func (tc *TestContext) SetCredentials(email, password string) {
	tc.email = email
	tc.password = password
}

func (tc *TestContext) GetEmail() string    { return tc.email }
func (tc *TestContext) GetPassword() string { return tc.password }

func (tc *TestContext) SetKycID(kycID string) { tc.kycID = kycID }
func (tc *TestContext) GetKycID() string      { return tc.kycID }
