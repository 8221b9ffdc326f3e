package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/website-analyzer/internal/analysis"
	"github.com/jonathan/website-analyzer/internal/snapshot"
	"github.com/jonathan/website-analyzer/internal/store"
)

// fakeAnalyzer returns canned artifacts and records the URLs it was asked to
// analyze.
type fakeAnalyzer struct {
	artifact analysis.Artifact
	site     *snapshot.Website
	calls    []string
}

func (f *fakeAnalyzer) record(url string) analysis.Artifact {
	f.calls = append(f.calls, url)
	return f.artifact
}

func (f *fakeAnalyzer) SEO(_ context.Context, url string) analysis.Artifact   { return f.record(url) }
func (f *fakeAnalyzer) Audit(_ context.Context, url string) analysis.Artifact { return f.record(url) }
func (f *fakeAnalyzer) ContentIdeas(_ context.Context, url, _ string) analysis.Artifact {
	return f.record(url)
}
func (f *fakeAnalyzer) SocialStrategy(_ context.Context, url string, _ []string) analysis.Artifact {
	return f.record(url)
}
func (f *fakeAnalyzer) EmailCampaign(_ context.Context, url, _ string) analysis.Artifact {
	return f.record(url)
}
func (f *fakeAnalyzer) Leads(_ context.Context, url string) analysis.Artifact { return f.record(url) }
func (f *fakeAnalyzer) Brochure(_ context.Context, url, _ string, _ bool) analysis.Artifact {
	return f.record(url)
}
func (f *fakeAnalyzer) Competitors(_ context.Context, url string, _ []string) analysis.Artifact {
	return f.record(url)
}
func (f *fakeAnalyzer) Capture(_ context.Context, url string) *snapshot.Website {
	f.calls = append(f.calls, url)
	return f.site
}

// fakeRunner registers jobs without running anything.
type fakeRunner struct {
	jobs    store.JobStore
	lastURL string
	lastTyp string
}

func (f *fakeRunner) Start(ctx context.Context, url, analysisType string) (*store.Job, error) {
	f.lastURL = url
	f.lastTyp = analysisType
	job := store.NewJob(url, analysisType)
	if err := f.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

type testEnv struct {
	server   *Server
	analyzer *fakeAnalyzer
	runner   *fakeRunner
	jobs     *store.MemoryJobStore
	cache    *store.MemoryCache
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	analyzer := &fakeAnalyzer{
		artifact: analysis.Artifact{Markdown: "# Report"},
		site: &snapshot.Website{
			URL:    "https://example.com",
			Domain: "example.com",
			Title:  "Example",
			Text:   "hello",
		},
	}
	jobs := store.NewMemoryJobStore()
	runner := &fakeRunner{jobs: jobs}
	cache := store.NewMemoryCache(store.CachePolicy{})

	srv, err := New(Config{Port: 0}, analyzer, runner, jobs, cache)
	require.NoError(t, err)

	return &testEnv{server: srv, analyzer: analyzer, runner: runner, jobs: jobs, cache: cache}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleRoot(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Website Analyzer API", body["message"])
	assert.Equal(t, "operational", body["status"])
	assert.Contains(t, body, "endpoints")
}

func TestHandleHealth(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleSEO_Success(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/seo", `{"url": "https://example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "SEO analysis completed successfully", body["message"])
	assert.NotEmpty(t, body["timestamp"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "# Report", data["analysis"])
	assert.Equal(t, "seo", data["type"])
	assert.Equal(t, "https://example.com", data["url"])
}

func TestHandleSEO_NormalizesSchemelessURL(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/seo", `{"url": "example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.analyzer.calls, 1)
	assert.Equal(t, "https://example.com", env.analyzer.calls[0])
}

func TestHandleSEO_SecondCallServedFromCache(t *testing.T) {
	env := newTestServer(t)

	first := env.do(t, http.MethodPost, "/analyze/seo", `{"url": "https://example.com"}`)
	require.Equal(t, http.StatusOK, first.Code)

	second := env.do(t, http.MethodPost, "/analyze/seo", `{"url": "https://example.com"}`)
	require.Equal(t, http.StatusOK, second.Code)

	body := decodeBody(t, second)
	assert.Equal(t, "SEO analysis retrieved from cache", body["message"])
	assert.Len(t, env.analyzer.calls, 1, "cached result must not trigger a second analysis")
}

func TestHandleSEO_FailedArtifactNotCached(t *testing.T) {
	env := newTestServer(t)
	env.analyzer.artifact = analysis.Artifact{Failed: true, ErrorDetail: "model unavailable"}

	rec := env.do(t, http.MethodPost, "/analyze/seo", `{"url": "https://example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.cache.Len())

	env.do(t, http.MethodPost, "/analyze/seo", `{"url": "https://example.com"}`)
	assert.Len(t, env.analyzer.calls, 2)
}

func TestHandleSEO_MissingURL(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/seo", `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["detail"], "Validation failed")
}

func TestHandleSEO_MalformedBody(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/seo", `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["detail"], "Invalid request body")
}

func TestHandleCompetitors_NormalizesAllURLs(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/competitors",
		`{"main_url": "example.com", "competitor_urls": ["rival.io", "https://other.net"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, "https://example.com", data["main_url"])
	assert.Equal(t, []any{"https://rival.io", "https://other.net"}, data["competitor_urls"])
}

func TestHandleCompetitors_RequiresCompetitors(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/competitors",
		`{"main_url": "https://example.com", "competitor_urls": []}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleContent_DefaultsContentType(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/content", `{"url": "https://example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, "blog", data["content_type"])
}

func TestHandleContact_StructuredPayload(t *testing.T) {
	env := newTestServer(t)
	env.analyzer.artifact = analysis.Artifact{Structured: map[string]any{"emails": []any{"a@b.c"}}}

	rec := env.do(t, http.MethodPost, "/analyze/contact", `{"url": "https://example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	payload := data["analysis"].(map[string]any)
	assert.Equal(t, []any{"a@b.c"}, payload["emails"])
	assert.Equal(t, "contact", data["type"])
}

func TestHandleSocial_EchoesPlatforms(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/social",
		`{"url": "https://example.com", "platforms": ["TikTok"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, []any{"TikTok"}, data["platforms"])
}

func TestHandleBrochure_EchoesHumorous(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/brochure",
		`{"url": "https://example.com", "humorous": true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["humorous"])
}

func TestHandleComplete_StartsJob(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/complete", `{"url": "example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["job_id"])
	assert.Equal(t, "started", body["status"])
	assert.Equal(t, "all", body["analysis_type"])
	assert.Equal(t, "https://example.com", env.runner.lastURL)
}

func TestHandleComplete_ContactAlias(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/complete",
		`{"url": "https://example.com", "analysis_type": "contact"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "leads", env.runner.lastTyp)
}

func TestHandleComplete_InvalidType(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/analyze/complete",
		`{"url": "https://example.com", "analysis_type": "astrology"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["detail"], "Invalid analysis type")
}

func TestHandleJobStatus_Found(t *testing.T) {
	env := newTestServer(t)
	job := store.NewJob("https://example.com", "all")
	require.NoError(t, env.jobs.CreateJob(context.Background(), job))

	rec := env.do(t, http.MethodGet, "/jobs/"+job.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, job.ID, body["job_id"])
	assert.Equal(t, "running", body["status"])
}

func TestHandleJobStatus_NotFound(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodGet, "/jobs/missing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Job not found", body["detail"])
}

func TestHandleListJobs(t *testing.T) {
	env := newTestServer(t)
	require.NoError(t, env.jobs.CreateJob(context.Background(), store.NewJob("https://example.com", "all")))
	env.cache.Put("seo_https://example.com", map[string]any{})

	rec := env.do(t, http.MethodGet, "/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total_jobs"])
	assert.Equal(t, float64(1), body["cache_size"])
}

func TestHandleWebsiteInfo_Success(t *testing.T) {
	env := newTestServer(t)
	env.analyzer.site = &snapshot.Website{
		URL:             "https://example.com",
		Domain:          "example.com",
		Title:           "Example",
		MetaDescription: "desc",
		Text:            "some visible text",
		StatusCode:      200,
		Links:           []snapshot.Link{{URL: "https://example.com/about"}},
	}

	rec := env.do(t, http.MethodGet, "/website/info?url=example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Example", data["title"])
	assert.Equal(t, "example.com", data["domain"])
	assert.Equal(t, float64(1), data["links_count"])
	assert.Equal(t, float64(200), data["status_code"])
}

func TestHandleWebsiteInfo_FetchFailure(t *testing.T) {
	env := newTestServer(t)
	env.analyzer.site = &snapshot.Website{
		Domain:     "example.com",
		FetchError: "connection refused",
	}

	rec := env.do(t, http.MethodGet, "/website/info?url=example.com", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["detail"], "Failed to fetch website info")
}

func TestHandleWebsiteInfo_MissingURL(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodGet, "/website/info", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_RequiredWhenSecretConfigured(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	analyzer := &fakeAnalyzer{artifact: analysis.Artifact{Markdown: "# Report"}}
	jobs := store.NewMemoryJobStore()
	srv, err := New(Config{Port: 0}, analyzer, &fakeRunner{jobs: jobs}, jobs, store.NewMemoryCache(store.CachePolicy{}))
	require.NoError(t, err)

	// Health stays open.
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Analysis endpoints require a token.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze/seo",
		strings.NewReader(`{"url": "https://example.com"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A freshly issued token is accepted.
	token, err := srv.jwtService.GenerateToken("test-client")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/analyze/seo",
		strings.NewReader(`{"url": "https://example.com"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_PerMinuteOverrideApplies(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	analyzer := &fakeAnalyzer{artifact: analysis.Artifact{Markdown: "# Report"}}
	jobs := store.NewMemoryJobStore()
	srv, err := New(Config{Port: 0, RateLimitPerMinute: 2},
		analyzer, &fakeRunner{jobs: jobs}, jobs, store.NewMemoryCache(store.CachePolicy{}))
	require.NoError(t, err)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		srv.Handler().ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_Returns429(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "2")

	analyzer := &fakeAnalyzer{artifact: analysis.Artifact{Markdown: "# Report"}}
	jobs := store.NewMemoryJobStore()
	srv, err := New(Config{Port: 0}, analyzer, &fakeRunner{jobs: jobs}, jobs, store.NewMemoryCache(store.CachePolicy{}))
	require.NoError(t, err)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		srv.Handler().ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Contains(t, body["detail"], "Rate limit exceeded")
}
