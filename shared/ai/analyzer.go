package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"safetube/internal/models"
	"safetube/shared/config"
)

// Analyzer scores videos with Gemini. Only metadata is sent to the
// model; the video content itself is never uploaded.
type Analyzer struct {
	client       *genai.Client
	model        string
	childAge     string
	filterPrompt string
}

func NewAnalyzer(cfg *config.AIConfig) (*Analyzer, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Analyzer{
		client:       client,
		model:        cfg.Model,
		childAge:     cfg.ChildAge,
		filterPrompt: cfg.FilterPrompt,
	}, nil
}

func (a *Analyzer) Score(ctx context.Context, video *models.Video) (*models.Score, error) {
	if video == nil {
		return nil, fmt.Errorf("video cannot be nil")
	}
	if video.Title == "" {
		return nil, fmt.Errorf("video title is required")
	}

	prompt := a.buildScorePrompt(video)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to score video %s: %w", video.ID, err)
	}

	responseText := result.Text()
	if responseText == "" {
		return nil, fmt.Errorf("no scoring response received for video %s", video.ID)
	}

	score, err := a.parseScoreResponse(responseText, video)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scoring response for video %s: %w", video.ID, err)
	}

	return score, nil
}

func (a *Analyzer) buildScorePrompt(video *models.Video) string {
	custom := ""
	if a.filterPrompt != "" {
		custom = fmt.Sprintf("\nADDITIONAL PARENT CRITERIA:\n%s\n", a.filterPrompt)
	}

	duration := "unknown"
	if video.DurationSeconds > 0 {
		duration = fmt.Sprintf("%d minutes %d seconds", video.DurationSeconds/60, video.DurationSeconds%60)
	}

	return fmt.Sprintf(`You are an AI assistant that evaluates YouTube videos for children aged %s.
Judge only from the metadata below; be conservative when information is missing.
%s
VIDEO METADATA:
Title: %s
Channel: %s
Description: %s
Duration: %s

Respond with JSON in exactly this format:
{
  "education_score": number (0.0-1.0, educational value for this age group),
  "safety_score": number (0.0-1.0, freedom from violence, fear and unsafe content),
  "overall_score": number (0.0-1.0, overall suitability),
  "age_appropriate": boolean,
  "reasoning": "One or two sentences explaining the scores",
  "recommended_age": "an age band such as 3-6"
}`,
		a.childAge,
		custom,
		video.Title,
		video.ChannelTitle,
		truncateString(video.Description, 1000),
		duration,
	)
}

func (a *Analyzer) parseScoreResponse(response string, video *models.Video) (*models.Score, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 {
		return nil, fmt.Errorf("no JSON found in response: %s", response)
	}
	jsonStr := response[startIdx : endIdx+1]

	var result struct {
		EducationScore float64 `json:"education_score"`
		SafetyScore    float64 `json:"safety_score"`
		OverallScore   float64 `json:"overall_score"`
		AgeAppropriate bool    `json:"age_appropriate"`
		Reasoning      string  `json:"reasoning"`
		RecommendedAge string  `json:"recommended_age"`
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		sanitized := sanitizeJSON(jsonStr)
		if sanitizedErr := json.Unmarshal([]byte(sanitized), &result); sanitizedErr != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON '%s': %w (sanitized version also failed: %v)", jsonStr, err, sanitizedErr)
		}
		log.Printf("Warning: Had to sanitize malformed JSON for video %s", video.Title)
	}

	if result.Reasoning == "" {
		return nil, fmt.Errorf("score reasoning is required but was empty")
	}

	score := &models.Score{
		Education:      clamp01(result.EducationScore),
		Safety:         clamp01(result.SafetyScore),
		Overall:        clamp01(result.OverallScore),
		AgeAppropriate: result.AgeAppropriate,
		Reasoning:      result.Reasoning,
		RecommendedAge: result.RecommendedAge,
	}
	if score.RecommendedAge == "" {
		score.RecommendedAge = recommendAge(score)
	}
	return score, nil
}

// sanitizeJSON fixes the most common formatting problem in model
// replies: unescaped quotes inside string values. It works line by
// line, re-escaping the content between the first and last quote of
// each string value.
func sanitizeJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	var sanitized []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if colonIdx := strings.Index(line, ":"); colonIdx != -1 && strings.Contains(line, "\"") {
			beforeColon := line[:colonIdx+1]
			afterColon := strings.TrimSpace(line[colonIdx+1:])

			if strings.HasPrefix(afterColon, "\"") {
				lastQuoteIdx := strings.LastIndex(afterColon, "\"")
				if lastQuoteIdx > 0 {
					content := afterColon[1:lastQuoteIdx]
					content = strings.ReplaceAll(content, "\\\"", "\"")
					content = strings.ReplaceAll(content, "\"", "\\\"")
					remainder := afterColon[lastQuoteIdx+1:]
					line = beforeColon + " \"" + content + "\"" + remainder
				}
			}
		}

		sanitized = append(sanitized, line)
	}

	return strings.Join(sanitized, "\n")
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
