package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/nkoval/finledger/internal/ingest"
)

// ModelClient is the minimal generative surface the engine needs.
type ModelClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls Gemini through the google.golang.org/genai SDK. The
// API key comes from the environment (GEMINI_API_KEY / GOOGLE_API_KEY).
type GeminiClient struct {
	modelName string
}

// NewGeminiClient creates a client for the given model, e.g.
// "gemini-2.5-flash".
func NewGeminiClient(modelName string) *GeminiClient {
	return &GeminiClient{modelName: modelName}
}

func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("categorize: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, c.modelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("categorize: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("categorize: empty response from model")
	}
	return text, nil
}

// suggestWithModel asks the model to classify the unmatched candidates in a
// single call and returns index → category for the ones it answered.
func (e *Engine) suggestWithModel(ctx context.Context, candidates []ingest.Candidate, unmatched []int) (map[int]string, error) {
	prompt := e.buildPrompt(candidates, unmatched)

	raw, err := e.model.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed []struct {
		TempID   int    `json:"temp_id"`
		Category string `json:"category"`
	}
	clean := cleanModelJSON(raw)
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("categorize: unmarshal model response: %w", err)
	}

	byTempID := make(map[int]int, len(unmatched))
	for _, i := range unmatched {
		byTempID[candidates[i].TempID] = i
	}
	out := make(map[int]string, len(parsed))
	for _, p := range parsed {
		if i, ok := byTempID[p.TempID]; ok {
			out[i] = p.Category
		}
	}
	return out, nil
}

func (e *Engine) buildPrompt(candidates []ingest.Candidate, unmatched []int) string {
	var names []string
	for _, rule := range e.rules {
		names = append(names, rule.Name)
	}

	var b strings.Builder
	b.WriteString("You are a financial transaction categorizer.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Assign each transaction below to the most appropriate category.\n")
	b.WriteString("- Use ONLY these categories: " + strings.Join(names, ", ") + "\n")
	b.WriteString("- Output STRICT JSON only (no comments, no extra text).\n")
	b.WriteString("- Output a JSON array of objects with fields \"temp_id\" (number) and \"category\" (string).\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n\n")
	b.WriteString("Transactions:\n")
	for _, i := range unmatched {
		c := candidates[i]
		fmt.Fprintf(&b, "- temp_id %d: %s %s %s (%s)\n", c.TempID, c.Date.String(), c.Amount.String(), c.Description, c.Direction)
	}
	return b.String()
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
