package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/delimatsuo/talentsearch/pkg/clients"
	"github.com/delimatsuo/talentsearch/pkg/llm"
)

// systemPrompt carries the fixed JSON schema enforced on every extraction call,
// paired with the instruction to only extract entities explicitly present
// in the query text.
const systemPrompt = `Extract role, skills, seniority, location, remote, and experience years from the recruiter query. Only extract entities explicitly present in the text. Respond with JSON matching: {"role":"","skills":[""],"seniority":"","location":"","remote":false,"experience_years_min":0,"experience_years_max":0}`

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type entityPayload struct {
	Role               string   `json:"role"`
	Skills             []string `json:"skills"`
	Seniority          string   `json:"seniority"`
	Location           string   `json:"location"`
	Remote             bool     `json:"remote"`
	ExperienceYearsMin int      `json:"experience_years_min"`
	ExperienceYearsMax int      `json:"experience_years_max"`
}

// HTTPClient calls an OpenAI-compatible chat completions endpoint in JSON
// mode. It has no retries of its own: the extractor's hard timeout is the
// controlling deadline, and a slow retry would blow that budget.
type HTTPClient struct {
	httpClient *http.Client
	cfg        llm.Config
}

// NewHTTPClient builds an extraction client from LLM configuration.
func NewHTTPClient(cfg llm.Config) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Transport: clients.DefaultTransport()},
		cfg:        cfg,
	}
}

// ExtractEntities implements Client.
func (c *HTTPClient) ExtractEntities(ctx context.Context, query string) (Record, error) {
	apiURL := strings.TrimRight(c.cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1"
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: query},
		},
	})
	if err != nil {
		return Record{}, fmt.Errorf("marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Record{}, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Record{}, fmt.Errorf("extraction service returned %s", resp.Status)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Record{}, fmt.Errorf("decode extraction response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return Record{}, fmt.Errorf("extraction response has no choices")
	}

	var payloadOut entityPayload
	if err := json.Unmarshal([]byte(decoded.Choices[0].Message.Content), &payloadOut); err != nil {
		return Record{}, fmt.Errorf("extraction response is not schema-valid JSON: %w", err)
	}

	return Record{
		Role:               payloadOut.Role,
		Skills:             payloadOut.Skills,
		Seniority:          payloadOut.Seniority,
		Location:           payloadOut.Location,
		Remote:             payloadOut.Remote,
		ExperienceYearsMin: payloadOut.ExperienceYearsMin,
		ExperienceYearsMax: payloadOut.ExperienceYearsMax,
	}, nil
}
