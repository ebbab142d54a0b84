package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"modelgate/internal/config"
	"modelgate/internal/inference"
)

type stubHandler struct {
	lastRequest *inference.Request
	response    *inference.Response
	err         error
}

func (s *stubHandler) Handle(_ context.Context, req *inference.Request) (*inference.Response, error) {
	s.lastRequest = req
	if s.err != nil {
		return nil, s.err
	}
	resp := *s.response
	resp.Task = req.Task
	return &resp, nil
}

func newTestServer(t *testing.T, handler Handler) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	srv := New(&cfg, handler, nil, nil)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestTextGenerationSuccess(t *testing.T) {
	handler := &stubHandler{response: &inference.Response{
		ModelUsed: "model/a",
		Elapsed:   1500 * time.Millisecond,
		Text:      &inference.TextResult{Content: "generated"},
	}}
	ts := newTestServer(t, handler)

	resp := postJSON(t, ts.URL+"/api/llm", `{"prompt":"hello","max_tokens":100}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var body struct {
		Text      string `json:"text"`
		ModelUsed string `json:"model_used"`
		ElapsedMS int64  `json:"elapsed_ms"`
	}
	decodeBody(t, resp, &body)
	if body.Text != "generated" || body.ModelUsed != "model/a" || body.ElapsedMS != 1500 {
		t.Errorf("body = %+v", body)
	}

	if handler.lastRequest.Params.MaxNewTokens != 100 {
		t.Errorf("max tokens = %d", handler.lastRequest.Params.MaxNewTokens)
	}
	// Unset fields get documented defaults.
	if handler.lastRequest.Params.Temperature != 0.7 {
		t.Errorf("temperature = %v", handler.lastRequest.Params.Temperature)
	}
}

func TestTextGenerationValidation(t *testing.T) {
	handler := &stubHandler{response: &inference.Response{Text: &inference.TextResult{}}}
	ts := newTestServer(t, handler)

	cases := []struct {
		name string
		body string
	}{
		{"missing prompt", `{}`},
		{"blank prompt", `{"prompt":"   "}`},
		{"prompt too long", `{"prompt":"` + strings.Repeat("a", 1001) + `"}`},
		{"max tokens out of range", `{"prompt":"hi","max_tokens":4096}`},
		{"temperature out of range", `{"prompt":"hi","temperature":3.5}`},
		{"unknown field", `{"prompt":"hi","bogus":1}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/llm", tc.body)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", resp.StatusCode)
			}
			var body errorBody
			decodeBody(t, resp, &body)
			if body.Error != string(inference.ClassValidation) {
				t.Errorf("error tag = %q", body.Error)
			}
			if body.Timestamp == "" {
				t.Error("missing timestamp")
			}
		})
	}
}

func TestGatewayFailureMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name: "exhausted",
			err: &inference.Error{
				Class:    inference.ClassExhausted,
				Model:    "model/c",
				Attempts: 12,
				Err:      errors.New("all candidates failed"),
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "cancelled",
			err:        &inference.Error{Class: inference.ClassCancelled, Err: context.Canceled},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "validation from core",
			err:        inference.NewValidationError(errors.New("bad shape")),
			wantStatus: http.StatusUnprocessableEntity,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, &stubHandler{err: tc.err})
			resp := postJSON(t, ts.URL+"/api/llm", `{"prompt":"hello"}`)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}
}

func TestGatewayFailureDetails(t *testing.T) {
	ts := newTestServer(t, &stubHandler{err: &inference.Error{
		Class:    inference.ClassExhausted,
		Model:    "model/c",
		Attempts: 12,
		Elapsed:  3 * time.Second,
		Err:      errors.New("down"),
	}})
	resp := postJSON(t, ts.URL+"/api/llm", `{"prompt":"hello"}`)

	var body struct {
		Error   string `json:"error"`
		Details struct {
			LastModel string `json:"last_model"`
			Attempts  int    `json:"attempts"`
			ElapsedMS int64  `json:"elapsed_ms"`
		} `json:"details"`
	}
	decodeBody(t, resp, &body)
	if body.Error != string(inference.ClassExhausted) {
		t.Errorf("error tag = %q", body.Error)
	}
	if body.Details.LastModel != "model/c" || body.Details.Attempts != 12 || body.Details.ElapsedMS != 3000 {
		t.Errorf("details = %+v", body.Details)
	}
}

func TestEmbeddingSuccess(t *testing.T) {
	handler := &stubHandler{response: &inference.Response{
		ModelUsed: "embed/model",
		Embedding: &inference.EmbeddingResult{Vector: []float64{0.1, 0.2}, Dimension: 2},
	}}
	ts := newTestServer(t, handler)

	resp := postJSON(t, ts.URL+"/api/embedding", `{"text":"hello"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Embedding []float64 `json:"embedding"`
		Dimension int       `json:"dimension"`
	}
	decodeBody(t, resp, &body)
	if body.Dimension != 2 || len(body.Embedding) != 2 {
		t.Errorf("body = %+v", body)
	}
}

func TestTextToSpeechReturnsBinary(t *testing.T) {
	handler := &stubHandler{response: &inference.Response{
		ModelUsed: "tts/model",
		Media:     &inference.MediaResult{MIMEType: "audio/wav", Data: []byte("RIFFdata")},
	}}
	ts := newTestServer(t, handler)

	resp := postJSON(t, ts.URL+"/api/tts", `{"text":"say this"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "audio/wav" {
		t.Errorf("content type = %q", got)
	}
	if got := resp.Header.Get("X-Model-Used"); got != "tts/model" {
		t.Errorf("model header = %q", got)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "speech.wav") {
		t.Errorf("disposition = %q", resp.Header.Get("Content-Disposition"))
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != "RIFFdata" {
		t.Errorf("body = %q", data)
	}
}

func TestSpeechToTextMultipart(t *testing.T) {
	confidence := 0.9
	handler := &stubHandler{response: &inference.Response{
		ModelUsed:  "stt/model",
		Transcript: &inference.TranscriptResult{Text: "hello world", Confidence: &confidence},
	}}
	ts := newTestServer(t, handler)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("audio", "clip.wav")
	part.Write([]byte("fake-audio"))
	writer.WriteField("language", "EN-us")
	writer.WriteField("model", "openai/whisper-large")
	writer.Close()

	resp, err := http.Post(ts.URL+"/api/stt", writer.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	decodeBody(t, resp, &body)
	if body.Text != "hello world" {
		t.Errorf("text = %q", body.Text)
	}
	// The model reported no language, so the normalized hint stands in.
	if body.Language != "en-US" {
		t.Errorf("language = %q", body.Language)
	}
	if handler.lastRequest.Model != "openai/whisper-large" {
		t.Errorf("model = %q", handler.lastRequest.Model)
	}
	if string(handler.lastRequest.Audio) != "fake-audio" {
		t.Errorf("audio = %q", handler.lastRequest.Audio)
	}
}

func TestSpeechToTextRequiresAudio(t *testing.T) {
	ts := newTestServer(t, &stubHandler{response: &inference.Response{}})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("model", "whatever")
	writer.Close()

	resp, err := http.Post(ts.URL+"/api/stt", writer.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestImageEditForwardsMaskAndStrength(t *testing.T) {
	handler := &stubHandler{response: &inference.Response{
		ModelUsed: "edit/model",
		Media:     &inference.MediaResult{MIMEType: "image/png", Data: []byte("png")},
	}}
	ts := newTestServer(t, handler)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	img, _ := writer.CreateFormFile("image", "input.png")
	img.Write([]byte("image-bytes"))
	mask, _ := writer.CreateFormFile("mask", "mask.png")
	mask.Write([]byte("mask-bytes"))
	writer.WriteField("prompt", "replace the sky")
	writer.Close()

	resp, err := http.Post(ts.URL+"/api/edit-image", writer.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if string(handler.lastRequest.Mask) != "mask-bytes" {
		t.Errorf("mask = %q", handler.lastRequest.Mask)
	}
	if handler.lastRequest.Params.Strength != nil {
		t.Error("strength should be nil when not supplied")
	}
}

func TestUploadSizeLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxAudioBytes = 64
	srv := New(&cfg, &stubHandler{response: &inference.Response{}}, nil, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("audio", "big.wav")
	part.Write(bytes.Repeat([]byte("x"), 4096))
	writer.Close()

	resp, err := http.Post(ts.URL+"/api/stt", writer.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
}

func TestTextToVideoDefaults(t *testing.T) {
	handler := &stubHandler{response: &inference.Response{
		ModelUsed: "video/model",
		Media:     &inference.MediaResult{MIMEType: "video/mp4", Data: []byte("mp4")},
	}}
	ts := newTestServer(t, handler)

	resp := postJSON(t, ts.URL+"/api/video/text-to-video", `{"prompt":"ocean waves"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if handler.lastRequest.Params.Duration != 6 || handler.lastRequest.Params.FPS != 8 {
		t.Errorf("params = %+v", handler.lastRequest.Params)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubHandler{response: &inference.Response{}})
	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
}

func TestConfigEndpointOmitsCredentials(t *testing.T) {
	ts := newTestServer(t, &stubHandler{response: &inference.Response{}})
	resp, err := http.Get(ts.URL + "/api/config")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(raw), "api_key") {
		t.Error("config response leaks credentials")
	}

	var body struct {
		Models map[string]struct {
			Default   string   `json:"default"`
			Fallbacks []string `json:"fallbacks"`
		} `json:"models"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Models) != len(inference.Tasks()) {
		t.Errorf("models = %d tasks, want %d", len(body.Models), len(inference.Tasks()))
	}
}

func TestHistoryEndpointWithoutStore(t *testing.T) {
	ts := newTestServer(t, &stubHandler{response: &inference.Response{}})
	resp, err := http.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Entries []any `json:"entries"`
	}
	decodeBody(t, resp, &body)
	if len(body.Entries) != 0 {
		t.Errorf("entries = %v", body.Entries)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, &stubHandler{response: &inference.Response{}})
	resp, err := http.Get(ts.URL + "/api/llm")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
