// Package scenario drives demonstration traffic through a recording client: text, json,
// xml, forms, multipart uploads, images, error statuses, untyped bodies and faults.
package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// Target tells a scenario where to send its request
type Target struct {
	BaseURL  string
	FaultURL string
}

// Scenario builds one request against a target
type Scenario struct {
	Name        string
	Description string

	// ExpectFault marks scenarios whose request is meant to fail in transport
	ExpectFault bool

	Build func(ctx context.Context, target Target) (*http.Request, error)
}

// Result is the caller's view of one scenario, after the recorder has seen it
type Result struct {
	Name       string
	StatusCode int
	Body       []byte
	Duration   time.Duration
	Err        error
}

// DemoFileContent is uploaded by the multipart scenario
const DemoFileContent = "This is a demo file."

func post(ctx context.Context, target, contentType string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func get(path string) func(context.Context, Target) (*http.Request, error) {
	return func(ctx context.Context, t Target) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, t.BaseURL+path, nil)
	}
}

// Catalog returns the built-in scenarios in the order the demo runs them
func Catalog() []Scenario {
	return []Scenario{
		{
			Name:        "text",
			Description: "plain text request body",
			Build: func(ctx context.Context, t Target) (*http.Request, error) {
				return post(ctx, t.BaseURL+"/echo", "text/plain; charset=utf-8", strings.NewReader("Hello, this is plain text!"))
			},
		},
		{
			Name:        "json",
			Description: "json request body echoed back",
			Build: func(ctx context.Context, t Target) (*http.Request, error) {
				return post(ctx, t.BaseURL+"/echo", "application/json; charset=utf-8", strings.NewReader(`{"name":"Mataki","type":"json"}`))
			},
		},
		{
			Name:        "xml",
			Description: "xml response",
			Build:       get("/xml"),
		},
		{
			Name:        "shift-jis",
			Description: "text response in a legacy charset",
			Build:       get("/sjis"),
		},
		{
			Name:        "form",
			Description: "url-encoded form",
			Build: func(ctx context.Context, t Target) (*http.Request, error) {
				form := url.Values{}
				form.Add("name", "Mataki")
				form.Add("email", "mataki@example.com")
				form.Add("age", "28")
				return post(ctx, t.BaseURL+"/echo", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
			},
		},
		{
			Name:        "multipart",
			Description: "file upload with a plain field",
			Build: func(ctx context.Context, t Target) (*http.Request, error) {
				body, contentType, err := MultipartUpload("demo.txt", []byte(DemoFileContent), map[string]string{"textField": "field value"})
				if err != nil {
					return nil, err
				}
				return post(ctx, t.BaseURL+"/echo", contentType, body)
			},
		},
		{
			Name:        "image",
			Description: "jpeg image download",
			Build:       get("/image/jpeg"),
		},
		{
			Name:        "not-found",
			Description: "404 response",
			Build:       get("/status/404"),
		},
		{
			Name:        "server-error",
			Description: "500 response",
			Build:       get("/status/500"),
		},
		{
			Name:        "untyped",
			Description: "response without a content type",
			Build:       get("/raw"),
		},
		{
			Name:        "fault",
			Description: "request to a closed server",
			ExpectFault: true,
			Build: func(ctx context.Context, t Target) (*http.Request, error) {
				return http.NewRequestWithContext(ctx, http.MethodGet, t.FaultURL+"/unreachable", nil)
			},
		},
	}
}

// MultipartUpload builds a multipart/form-data body with one text/plain file part
// followed by the given plain fields, returning the body and its content type.
func MultipartUpload(fileName string, content []byte, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", "text/plain")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

// Generated returns n scenarios posting random json documents built from the
// dictionary at dictPath. a zero seed picks one from the clock.
func Generated(n int, seed int64, dictPath string) ([]Scenario, error) {
	if dictPath == "" {
		dictPath = DefaultDictionaryPath
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	dict, err := LoadDictionary(dictPath)
	if err != nil {
		return nil, err
	}
	gen := NewPayloadGenerator(dict, 3, 6, rand.New(rand.NewSource(seed)))

	scenarios := make([]Scenario, 0, n)
	for i := 0; i < n; i++ {
		payload, err := json.Marshal(gen.Object(0))
		if err != nil {
			return nil, fmt.Errorf("generate payload %d: %w", i, err)
		}
		scenarios = append(scenarios, Scenario{
			Name:        fmt.Sprintf("generated-%d", i+1),
			Description: "random json document",
			Build: func(ctx context.Context, t Target) (*http.Request, error) {
				return post(ctx, t.BaseURL+"/echo", "application/json", bytes.NewReader(payload))
			},
		})
	}
	return scenarios, nil
}

// Runner sends scenarios one after another and drains every response
type Runner struct {
	Client *http.Client
	Target Target
	Logger *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Run executes scenarios in order, stopping early only when ctx is done
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		if ctx.Err() != nil {
			break
		}
		result := r.runOne(ctx, s)
		if result.Err != nil && !s.ExpectFault {
			r.logger().Warn("scenario failed", "scenario", s.Name, "error", result.Err)
		} else {
			r.logger().Debug("scenario finished", "scenario", s.Name, "status", result.StatusCode, "duration", result.Duration)
		}
		results = append(results, result)
	}
	return results
}

func (r *Runner) runOne(ctx context.Context, s Scenario) Result {
	result := Result{Name: s.Name}

	req, err := s.Build(ctx, r.Target)
	if err != nil {
		result.Err = fmt.Errorf("build request: %w", err)
		return result
	}

	start := time.Now()
	resp, err := r.Client.Do(req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Body, result.Err = io.ReadAll(resp.Body)
	return result
}
