package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/website-analyzer/internal/analysis"
)

// validate checks request structs against their validation tags.
var validate = validator.New()

// URLRequest is the request body for single-URL analyses.
type URLRequest struct {
	URL string `json:"url" validate:"required"`
}

// CompetitorRequest is the request body for /analyze/competitors.
type CompetitorRequest struct {
	MainURL        string   `json:"main_url" validate:"required"`
	CompetitorURLs []string `json:"competitor_urls" validate:"required,min=1,dive,required"`
}

// ContentRequest is the request body for /analyze/content.
type ContentRequest struct {
	URL         string `json:"url" validate:"required"`
	ContentType string `json:"content_type"`
}

// SocialRequest is the request body for /analyze/social.
type SocialRequest struct {
	URL       string   `json:"url" validate:"required"`
	Platforms []string `json:"platforms"`
}

// EmailRequest is the request body for /analyze/email.
type EmailRequest struct {
	URL          string `json:"url" validate:"required"`
	CampaignType string `json:"campaign_type"`
}

// BrochureRequest is the request body for /analyze/brochure.
type BrochureRequest struct {
	URL         string `json:"url" validate:"required"`
	CompanyName string `json:"company_name"`
	Humorous    bool   `json:"humorous"`
}

// CompleteRequest is the request body for /analyze/complete.
type CompleteRequest struct {
	URL          string `json:"url" validate:"required"`
	AnalysisType string `json:"analysis_type"`
}

// AnalysisResponse is the success envelope shared by analysis endpoints.
type AnalysisResponse struct {
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
}

// decode reads and validates a JSON request body. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// normalizeURL prefixes schemeless URLs with https.
func normalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return url
}

func (s *Server) respond(w http.ResponseWriter, data map[string]any, message string) {
	s.jsonResponse(w, http.StatusOK, AnalysisResponse{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// cachedAnalysis serves kind/url from the cache or runs fn and caches its
// result. Failed artifacts are returned but never cached.
func (s *Server) cachedAnalysis(w http.ResponseWriter, kind, url, message string, fn func() analysis.Artifact) {
	cacheKey := kind + "_" + url
	if cached, ok := s.cache.Get(cacheKey); ok {
		if data, ok := cached.(map[string]any); ok {
			s.respond(w, data, strings.Replace(message, "completed successfully", "retrieved from cache", 1))
			return
		}
	}

	art := fn()
	data := map[string]any{"analysis": art.Value(), "type": kind, "url": url}
	if !art.Failed {
		s.cache.Put(cacheKey, data)
	}
	s.respond(w, data, message)
}

// handleRoot returns the service descriptor and endpoint catalog.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Website Analyzer API",
		"version": "1.0.0",
		"status":  "operational",
		"endpoints": map[string][]string{
			"analysis": {
				"/analyze/seo",
				"/analyze/competitors",
				"/analyze/content",
				"/analyze/contact",
				"/analyze/audit",
				"/analyze/social",
				"/analyze/email",
				"/analyze/brochure",
				"/analyze/complete",
			},
			"utility": {
				"/website/info",
				"/jobs/{job_id}",
				"/health",
			},
		},
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "Website Analyzer API",
		"version":   "1.0.0",
	})
}

// handleSEO performs SEO analysis on a website.
func (s *Server) handleSEO(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	if !s.decode(w, r, &req) {
		return
	}
	url := normalizeURL(req.URL)

	s.cachedAnalysis(w, "seo", url, "SEO analysis completed successfully", func() analysis.Artifact {
		return s.svc.SEO(r.Context(), url)
	})
}

// handleCompetitors compares a website against competitors.
func (s *Server) handleCompetitors(w http.ResponseWriter, r *http.Request) {
	var req CompetitorRequest
	if !s.decode(w, r, &req) {
		return
	}
	mainURL := normalizeURL(req.MainURL)
	competitorURLs := make([]string, len(req.CompetitorURLs))
	for i, u := range req.CompetitorURLs {
		competitorURLs[i] = normalizeURL(u)
	}

	art := s.svc.Competitors(r.Context(), mainURL, competitorURLs)
	s.respond(w, map[string]any{
		"analysis":        art.Value(),
		"type":            "competitors",
		"main_url":        mainURL,
		"competitor_urls": competitorURLs,
	}, "Competitor analysis completed successfully")
}

// handleContent generates content marketing ideas.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !s.decode(w, r, &req) {
		return
	}
	url := normalizeURL(req.URL)
	if req.ContentType == "" {
		req.ContentType = analysis.DefaultContentType
	}

	art := s.svc.ContentIdeas(r.Context(), url, req.ContentType)
	s.respond(w, map[string]any{
		"analysis":     art.Value(),
		"type":         "content",
		"content_type": req.ContentType,
		"url":          url,
	}, "Content ideas generated successfully")
}

// handleContact extracts contact information as a structured payload.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	if !s.decode(w, r, &req) {
		return
	}
	url := normalizeURL(req.URL)

	s.cachedAnalysis(w, "contact", url, "Contact information extracted successfully", func() analysis.Artifact {
		return s.svc.Leads(r.Context(), url)
	})
}

// handleAudit performs a comprehensive website audit.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	if !s.decode(w, r, &req) {
		return
	}
	url := normalizeURL(req.URL)

	s.cachedAnalysis(w, "audit", url, "Website audit completed successfully", func() analysis.Artifact {
		return s.svc.Audit(r.Context(), url)
	})
}

// handleSocial generates a social media strategy.
func (s *Server) handleSocial(w http.ResponseWriter, r *http.Request) {
	var req SocialRequest
	if !s.decode(w, r, &req) {
		return
	}
	url := normalizeURL(req.URL)
	if len(req.Platforms) == 0 {
		req.Platforms = analysis.DefaultPlatforms
	}

	art := s.svc.SocialStrategy(r.Context(), url, req.Platforms)
	s.respond(w, map[string]any{
		"analysis":  art.Value(),
		"type":      "social",
		"platforms": req.Platforms,
		"url":       url,
	}, "Social media strategy generated successfully")
}

// handleEmail generates an email campaign.
func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !s.decode(w, r, &req) {
		return
	}
	url := normalizeURL(req.URL)
	if req.CampaignType == "" {
		req.CampaignType = analysis.DefaultCampaignType
	}

	art := s.svc.EmailCampaign(r.Context(), url, req.CampaignType)
	s.respond(w, map[string]any{
		"analysis":      art.Value(),
		"type":          "email",
		"campaign_type": req.CampaignType,
		"url":           url,
	}, "Email campaign generated successfully")
}

// handleBrochure creates a company brochure.
func (s *Server) handleBrochure(w http.ResponseWriter, r *http.Request) {
	var req BrochureRequest
	if !s.decode(w, r, &req) {
		return
	}
	url := normalizeURL(req.URL)

	art := s.svc.Brochure(r.Context(), url, req.CompanyName, req.Humorous)
	s.respond(w, map[string]any{
		"analysis": art.Value(),
		"type":     "brochure",
		"humorous": req.Humorous,
		"url":      url,
	}, "Company brochure created successfully")
}

// handleComplete starts a background job running one or all analyses.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if !s.decode(w, r, &req) {
		return
	}
	url := normalizeURL(req.URL)
	analysisType := req.AnalysisType
	if analysisType == "" {
		analysisType = "all"
	}
	// "contact" is the job-level alias for the leads extraction kind.
	if analysisType == "contact" {
		analysisType = "leads"
	}
	if analysisType != "all" && !analysis.KnownKind(analysisType) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid analysis type: "+req.AnalysisType)
		return
	}

	job, err := s.runner.Start(r.Context(), url, analysisType)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to start analysis: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"job_id":         job.ID,
		"status":         "started",
		"message":        "Complete analysis started. Use /jobs/{job_id} to check progress",
		"estimated_time": "3-8 minutes",
		"url":            url,
		"analysis_type":  analysisType,
	})
}

// handleJobStatus returns the state of an analysis job.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if jobID == "" {
		s.errorResponse(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := s.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load job: "+err.Error())
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, job)
}

// handleListJobs lists all known job ids and the cache size.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.jobs.ListJobIDs(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list jobs: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"total_jobs": len(ids),
		"jobs":       ids,
		"cache_size": s.cache.Len(),
	})
}

// handleWebsiteInfo returns a raw snapshot summary without a model call.
func (s *Server) handleWebsiteInfo(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	url := normalizeURL(rawURL)

	site := s.svc.Capture(r.Context(), url)
	if site.FetchError != "" {
		s.errorResponse(w, http.StatusBadRequest, "Failed to fetch website info: "+site.FetchError)
		return
	}

	s.respond(w, map[string]any{
		"title":            site.Title,
		"meta_description": site.MetaDescription,
		"keywords":         site.Keywords,
		"domain":           site.Domain,
		"links_count":      len(site.Links),
		"images_count":     len(site.Images),
		"content_length":   len(site.Text),
		"status_code":      site.StatusCode,
		"url":              url,
	}, "Website info fetched successfully")
}
