package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/rostrumhq/rostrum/internal/pipeline"
	"github.com/rostrumhq/rostrum/internal/server"
	"github.com/rostrumhq/rostrum/internal/store"
	"github.com/rostrumhq/rostrum/pkg/asr"
	asrmock "github.com/rostrumhq/rostrum/pkg/asr/mock"
	"github.com/rostrumhq/rostrum/pkg/nlp"
	nlpmock "github.com/rostrumhq/rostrum/pkg/nlp/mock"
)

// wavBytes encodes a two second 200 Hz sine as a 16-bit mono WAV file.
func wavBytes(t *testing.T) []byte {
	t.Helper()
	const rate = 16000
	path := filepath.Join(t.TempDir(), "speech.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	data := make([]int, 2*rate)
	for i := range data {
		data[i] = int(0.3 * 32767 * math.Sin(2*math.Pi*200*float64(i)/rate))
	}
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	return raw
}

func multipartBody(t *testing.T, audioData []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if audioData != nil {
		fw, err := mw.CreateFormFile("audio", "speech.wav")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(audioData); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func testTranscript() asr.Transcript {
	return asr.Transcript{
		Text: "Hello everyone today.",
		Segments: []asr.Segment{{
			Start: 0, End: 1.2,
			Text: "Hello everyone today.",
			Words: []asr.Word{
				{Text: "Hello", Start: 0, End: 0.3},
				{Text: "everyone", Start: 0.4, End: 0.8},
				{Text: "today.", Start: 0.9, End: 1.2},
			},
		}},
		Duration: 1.2,
	}
}

func newTestServer(t *testing.T, opts ...server.Option) *server.Server {
	t.Helper()
	pipe := pipeline.New(
		&asrmock.Transcriber{Result: testTranscript()},
		pipeline.WithAnnotator(&nlpmock.Annotator{Result: nlp.Annotation{
			Tokens: []nlp.Token{
				{Text: "Hello", POS: "INTJ", Head: 0, IsAlpha: true},
				{Text: "everyone", POS: "PRON", Head: 0, IsAlpha: true},
				{Text: "today", POS: "NOUN", Head: 0, IsAlpha: true},
			},
			Sentences: []nlp.Sentence{{Start: 0, End: 3, Text: "Hello everyone today."}},
		}}),
	)
	return server.New(pipe, opts...)
}

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu      sync.Mutex
	recs    []store.EvaluationRecord
	saveErr error
}

func (m *memStore) Save(_ context.Context, rec *store.EvaluationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	rec.ID = fmt.Sprintf("ev-%d", len(m.recs)+1)
	rec.CreatedAt = time.Now().UTC()
	m.recs = append(m.recs, *rec)
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*store.EvaluationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.recs {
		if m.recs[i].ID == id {
			rec := m.recs[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListRecent(_ context.Context, limit int) ([]store.EvaluationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.EvaluationRecord, 0, limit)
	for i := len(m.recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.recs[i])
	}
	return out, nil
}

func TestEvaluate_Success(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	body, contentType := multipartBody(t, wavBytes(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		ID           string             `json:"id"`
		OverallScore float64            `json:"overall_score"`
		Tier         string             `json:"tier"`
		Breakdown    map[string]float64 `json:"breakdown"`
		Transcript   string             `json:"transcript"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OverallScore <= 0 || resp.Tier == "" {
		t.Errorf("score/tier = %v/%q", resp.OverallScore, resp.Tier)
	}
	if resp.Transcript != "Hello everyone today." {
		t.Errorf("transcript = %q", resp.Transcript)
	}
	if _, ok := resp.Breakdown["grammar"]; !ok {
		t.Errorf("breakdown = %v, missing grammar", resp.Breakdown)
	}
	if resp.ID != "" {
		t.Errorf("id = %q, want empty without a store", resp.ID)
	}
}

func TestEvaluate_MissingAudioField(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	body, contentType := multipartBody(t, nil, map[string]string{"topic": "anything"})
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "audio") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestEvaluate_RejectsNonWAVUpload(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	body, contentType := multipartBody(t, []byte("this is not audio"), nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rr.Code)
	}
}

func TestEvaluate_UnknownDepth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	body, contentType := multipartBody(t, wavBytes(t), map[string]string{"depth": "extreme"})
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "unknown analysis depth") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestSetDefaults_SafeDuringRequests(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	h := srv.Handler()
	body, contentType := multipartBody(t, wavBytes(t), nil)
	payload := body.Bytes()

	// Reload defaults from one goroutine while requests that read them are
	// in flight, the way the config watcher does against a live server.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			srv.SetDefaults(server.Defaults{Depth: pipeline.DepthBasic, ExpectedDuration: "2 minutes"})
			srv.SetDefaults(server.Defaults{Depth: pipeline.DepthAdvanced, ExpectedDuration: "5 minutes"})
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				req := httptest.NewRequest(http.MethodPost, "/v1/evaluations", bytes.NewReader(payload))
				req.Header.Set("Content-Type", contentType)
				rr := httptest.NewRecorder()
				h.ServeHTTP(rr, req)
				if rr.Code != http.StatusOK {
					t.Errorf("status = %d, body %s", rr.Code, rr.Body.String())
					return
				}
			}
		}()
	}
	wg.Wait()
	<-done

	got := srv.Defaults()
	if got.Depth != pipeline.DepthAdvanced || got.ExpectedDuration != "5 minutes" {
		t.Errorf("defaults = %+v, want last applied reload", got)
	}
}

func TestEvaluate_TranscriberFailureIsBadGateway(t *testing.T) {
	t.Parallel()
	pipe := pipeline.New(&asrmock.Transcriber{Err: errors.New("model not loaded")})
	srv := server.New(pipe)

	body, contentType := multipartBody(t, wavBytes(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
}

func TestEvaluate_PersistsWhenStoreConfigured(t *testing.T) {
	t.Parallel()
	ms := &memStore{}
	srv := newTestServer(t, server.WithStore(ms))

	body, contentType := multipartBody(t, wavBytes(t), map[string]string{"topic": "Greetings"})
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		ID        string     `json:"id"`
		CreatedAt *time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "ev-1" || resp.CreatedAt == nil {
		t.Errorf("id/created_at = %q/%v", resp.ID, resp.CreatedAt)
	}
	if len(ms.recs) != 1 || ms.recs[0].Topic != "Greetings" {
		t.Errorf("stored = %+v", ms.recs)
	}
}

func TestEvaluate_SaveFailureStillReturnsEvaluation(t *testing.T) {
	t.Parallel()
	ms := &memStore{saveErr: errors.New("connection reset")}
	srv := newTestServer(t, server.WithStore(ms))

	body, contentType := multipartBody(t, wavBytes(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite save failure", rr.Code)
	}
	if strings.Contains(rr.Body.String(), `"id"`) {
		t.Errorf("body should carry no id: %s", rr.Body.String())
	}
}

func TestGet_WithoutStore(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/evaluations/ev-1", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, server.WithStore(&memStore{}))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/evaluations/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestGet_ReturnsStoredEvaluation(t *testing.T) {
	t.Parallel()
	ms := &memStore{}
	rec := &store.EvaluationRecord{Transcript: "stored talk", OverallScore: 77.5}
	if err := ms.Save(context.Background(), rec); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	srv := newTestServer(t, server.WithStore(ms))

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/evaluations/"+rec.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		ID           string  `json:"id"`
		OverallScore float64 `json:"overall_score"`
		Transcript   string  `json:"transcript"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != rec.ID || resp.OverallScore != 77.5 || resp.Transcript != "stored talk" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestList_WithoutStoreIsEmpty(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/evaluations", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("body = %s, want empty array", rr.Body.String())
	}
}

func TestList_ValidatesLimit(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, server.WithStore(&memStore{}))
	for _, limit := range []string{"0", "-3", "101", "ten"} {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/evaluations?limit="+limit, nil))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("limit %q: status = %d, want 400", limit, rr.Code)
		}
	}
}

func TestList_NewestFirst(t *testing.T) {
	t.Parallel()
	ms := &memStore{}
	for i := 0; i < 3; i++ {
		rec := &store.EvaluationRecord{Transcript: fmt.Sprintf("talk %d", i)}
		if err := ms.Save(context.Background(), rec); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	srv := newTestServer(t, server.WithStore(ms))

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/evaluations?limit=2", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != "ev-3" || resp[1].ID != "ev-2" {
		t.Errorf("resp = %+v, want newest two", resp)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	h := srv.Handler()

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rr.Code)
		}
	}
}
