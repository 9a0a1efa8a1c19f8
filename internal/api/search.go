package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/delimatsuo/talentsearch/internal/orchestrator"
	"github.com/delimatsuo/talentsearch/internal/weights"
	"github.com/delimatsuo/talentsearch/pkg/middleware"
	"github.com/delimatsuo/talentsearch/pkg/tenants"
	"github.com/delimatsuo/talentsearch/pkg/validation"
)

// tenantHeader carries the caller's tenant id; an upstream gateway is
// expected to have authenticated the caller and attached it.
const tenantHeader = "X-Tenant-ID"

func tenantIDFrom(c *gin.Context) string {
	if v := c.GetString("tenant_id"); v != "" {
		return v
	}
	return c.GetHeader(tenantHeader)
}

// rejectReservedTenant blocks callers from querying under a reserved system
// tenant id, which would bypass the per-tenant isolation search results rely
// on. A tenant id that isn't a UUID at all (e.g. a demo slug) is left to the
// store layer to reject.
func rejectReservedTenant(c *gin.Context, tenantID string) bool {
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return false
	}
	if tenants.IsSystemTenant(id) {
		writeValidationError(c, []validation.FieldError{{Field: "tenantId", Tag: "reserved", Message: "reserved tenant id cannot be used for search"}})
		return true
	}
	return false
}

// handleHybridSearch implements POST /v1/search/hybrid.
func (h *Handler) handleHybridSearch(c *gin.Context) {
	var body validation.HybridSearchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeValidationError(c, []validation.FieldError{{Field: "body", Tag: "json", Message: err.Error()}})
		return
	}
	if errs := h.Validator.ValidateHybridSearchRequest(&body); len(errs) > 0 {
		writeValidationError(c, errs)
		return
	}
	tenantID := tenantIDFrom(c)
	if rejectReservedTenant(c, tenantID) {
		return
	}

	req := orchestrator.Request{
		TenantID:               tenantID,
		RequestID:              requestIDFrom(c),
		Query:                  body.Query,
		Embedding:              body.Embedding,
		JobDescription:         body.JobDescription,
		JDHash:                 body.JDHash,
		Filters:                filtersFromValidation(body.Filters),
		Limit:                  body.Limit,
		Offset:                 body.Offset,
		IncludeDebug:           body.IncludeDebug,
		RoleType:               weights.RoleType(body.RoleType),
		SignalWeights:          weights.Config(body.SignalWeights),
		EnableNLP:              body.EnableNLP,
		NLPConfidenceThreshold: body.NLPConfidenceThreshold,
		Anonymize:              body.Anonymize,
		IncludeMatchRationale:  body.IncludeMatchRationale,
		RationaleLimit:         body.RationaleLimit,
	}

	resp, err := h.Orchestrator.Search(c.Request.Context(), req)
	if err != nil {
		middleware.GetContextLogger(c, h.Logger).WithError(err).Error("hybrid search failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "dependency_unready", "message": "search is temporarily unavailable"})
		return
	}

	applyTimingHeaders(c, resp)
	c.JSON(http.StatusOK, hybridResponseBody(resp))
}

// handleCandidateSearch implements POST /v1/search/candidates, a simplified
// wrapper over the same pipeline returning a flattened candidate list.
func (h *Handler) handleCandidateSearch(c *gin.Context) {
	var body validation.CandidateSearchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeValidationError(c, []validation.FieldError{{Field: "body", Tag: "json", Message: err.Error()}})
		return
	}
	if errs := h.Validator.ValidateCandidateSearchRequest(&body); len(errs) > 0 {
		writeValidationError(c, errs)
		return
	}
	tenantID := tenantIDFrom(c)
	if rejectReservedTenant(c, tenantID) {
		return
	}

	req := orchestrator.Request{
		TenantID:   tenantID,
		RequestID:  requestIDFrom(c),
		Query:      body.Query,
		Filters:    filtersFromValidation(body.Filters),
		Limit:      body.Limit,
		RoleType:   weights.RoleDefault,
		EnableNLP: true,
	}

	resp, err := h.Orchestrator.Search(c.Request.Context(), req)
	if err != nil {
		middleware.GetContextLogger(c, h.Logger).WithError(err).Error("candidate search failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "dependency_unready", "message": "search is temporarily unavailable"})
		return
	}

	applyTimingHeaders(c, resp)

	candidates := make([]gin.H, len(resp.Results))
	for i, item := range resp.Results {
		candidate := gin.H{
			"candidateId": item.CandidateID,
			"score":       item.FinalScore,
		}
		if body.IncludeMetadata {
			candidate["signalScores"] = item.SignalScores
			candidate["matchReasons"] = item.MatchReasons
		}
		candidates[i] = candidate
	}
	c.JSON(http.StatusOK, gin.H{
		"candidates": candidates,
		"total":      resp.Total,
		"requestId":  resp.RequestID,
		"cacheHit":   resp.CacheHit,
	})
}

func filtersFromValidation(f validation.SearchFilters) orchestrator.Filters {
	return orchestrator.Filters{
		Locations:          f.Locations,
		Countries:          f.Countries,
		Industries:         f.Industries,
		Skills:             f.Skills,
		SeniorityLevels:    f.SeniorityLevels,
		MinExperienceYears: f.MinExperienceYears,
		MaxExperienceYears: f.MaxExperienceYears,
		Metadata:           f.Metadata,
	}
}

func hybridResponseBody(resp orchestrator.Response) gin.H {
	results := make([]gin.H, len(resp.Results))
	for i, item := range resp.Results {
		results[i] = gin.H{
			"candidateId":    item.CandidateID,
			"finalScore":     item.FinalScore,
			"vectorScore":    item.VectorScore,
			"textScore":      item.TextScore,
			"rrfScore":       item.RRFScore,
			"signalScores":   item.SignalScores,
			"weightsApplied": item.WeightsApplied,
			"roleTypeUsed":   item.RoleTypeUsed,
			"matchReasons":   item.MatchReasons,
			"rationale":      item.Rationale,
			"anonymized":     item.Anonymized,
		}
	}
	return gin.H{
		"results":   results,
		"total":     resp.Total,
		"cacheHit":  resp.CacheHit,
		"requestId": resp.RequestID,
		"timings":   resp.Timings,
		"metadata":  resp.Metadata,
	}
}

func requestIDFrom(c *gin.Context) string {
	if v := middleware.GetRequestID(c); v != "" {
		return v
	}
	return uuid.New().String()
}

// applyTimingHeaders sets the Server-Timing, X-Response-Time, and
// X-Cache-Status headers described in §6.
func applyTimingHeaders(c *gin.Context, resp orchestrator.Response) {
	cacheDesc := "miss"
	if resp.CacheHit {
		cacheDesc = "hit"
	}
	var parts []string
	for _, stage := range []string{"embedding", "retrieval", "rerank", "total"} {
		if d, ok := resp.Timings[stage]; ok {
			parts = append(parts, fmt.Sprintf("%s;dur=%.2f", stage, float64(d)/float64(time.Millisecond)))
		}
	}
	parts = append(parts, fmt.Sprintf("cache;desc=%q", cacheDesc))
	c.Header("Server-Timing", strings.Join(parts, ", "))
	c.Header("X-Response-Time", fmt.Sprintf("%.2fms", float64(resp.Timings["total"])/float64(time.Millisecond)))
	c.Header("X-Cache-Status", strings.ToUpper(cacheDesc))
}

func writeValidationError(c *gin.Context, errs []validation.FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "validation_failed",
		"message": "request failed validation",
		"details": errs,
	})
}
