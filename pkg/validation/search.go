// Package validation wraps go-playground/validator struct-tag validation
// for the public search request bodies.
package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// SearchFilters mirrors the filter object accepted by POST /v1/search/hybrid.
type SearchFilters struct {
	Locations          []string          `json:"locations,omitempty"`
	Countries          []string          `json:"countries,omitempty"`
	Industries         []string          `json:"industries,omitempty"`
	Skills             []string          `json:"skills,omitempty"`
	SeniorityLevels    []string          `json:"seniorityLevels,omitempty"`
	MinExperienceYears *int              `json:"minExperienceYears,omitempty" validate:"omitempty,gte=0"`
	MaxExperienceYears *int              `json:"maxExperienceYears,omitempty" validate:"omitempty,gte=0"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// HybridSearchRequest is the request body for POST /v1/search/hybrid.
type HybridSearchRequest struct {
	Query                  string            `json:"query"`
	JobDescription         string            `json:"jobDescription"`
	Embedding              []float32         `json:"embedding,omitempty"`
	JDHash                 string            `json:"jdHash,omitempty"`
	Filters                SearchFilters     `json:"filters,omitempty"`
	Limit                  int               `json:"limit" validate:"gte=1,lte=200"`
	Offset                 int               `json:"offset" validate:"gte=0,lte=200"`
	IncludeDebug           bool              `json:"includeDebug,omitempty"`
	RoleType               string            `json:"roleType,omitempty" validate:"omitempty,oneof=executive manager ic default"`
	SignalWeights          map[string]float64 `json:"signalWeights,omitempty"`
	EnableNLP              bool              `json:"enableNlp,omitempty"`
	NLPConfidenceThreshold float64           `json:"nlpConfidenceThreshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	Anonymize              bool              `json:"anonymize,omitempty"`
	IncludeMatchRationale  bool              `json:"includeMatchRationale,omitempty"`
	RationaleLimit         int               `json:"rationaleLimit,omitempty" validate:"omitempty,gte=0,lte=200"`
}

// CandidateSearchRequest is the simplified request body for
// POST /v1/search/candidates.
type CandidateSearchRequest struct {
	Query           string        `json:"query" validate:"required"`
	Limit           int           `json:"limit" validate:"gte=1,lte=200"`
	IncludeMetadata bool          `json:"includeMetadata,omitempty"`
	Filters         SearchFilters `json:"filters,omitempty"`
}

// Validator wraps a validator.Validate instance for request-body validation.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with standard struct validation.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// FieldError is one field-level validation failure, suitable for returning
// in a 400 response's `details` array.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidateHybridSearchRequest validates req, defaulting Limit when zero
// (clients may omit it rather than pass an out-of-range value).
func (val *Validator) ValidateHybridSearchRequest(req *HybridSearchRequest) []FieldError {
	if req.Limit == 0 {
		req.Limit = 20
	}
	if req.Query == "" && req.JobDescription == "" && len(req.Embedding) == 0 {
		return []FieldError{{Field: "query", Tag: "required_without_jobdescription_or_embedding", Message: "one of query, jobDescription, or embedding is required"}}
	}
	return val.structErrors(req)
}

// ValidateCandidateSearchRequest validates req.
func (val *Validator) ValidateCandidateSearchRequest(req *CandidateSearchRequest) []FieldError {
	if req.Limit == 0 {
		req.Limit = 20
	}
	return val.structErrors(req)
}

func (val *Validator) structErrors(s any) []FieldError {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Tag: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag()),
		})
	}
	return out
}
