package tagger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/voxlog/voxlog/internal/video/models"
)

const (
	fallbackTitle = "Untitled Entry"
	errorTitle    = "Processing Error"

	// maxTranscriptChars bounds what is submitted to the model; longer
	// transcripts are truncated, never rejected.
	maxTranscriptChars = 8000
	maxTitleChars      = 50
	maxTags            = 5
)

const taggingPrompt = `You are analyzing a personal video journal transcript.
Based on the vibe, emotions, and content of this entry, generate:

1. A short title (1-5 words) that captures the essence/mood of the entry
2. 2-5 relevant tags that describe the themes, emotions, or topics

The title should feel personal and capture the "vibe" - not just summarize the content.
Tags should be lowercase, single words or short phrases.

Transcript:
%s

Respond ONLY with valid JSON in this exact format:
{"title": "Your Title Here", "tags": ["tag1", "tag2", "tag3"]}`

// Tagger derives a title and tags from a transcript. Implementations never
// fail: every error path maps to a deterministic fallback result.
type Tagger interface {
	Tag(ctx context.Context, transcript string) models.TaggingResult
}

// ChatClient is the slice of the OpenAI client the tagger needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type OpenAI struct {
	client ChatClient
	model  string
	logger zerolog.Logger
}

func NewOpenAI(client ChatClient, model string, logger zerolog.Logger) *OpenAI {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{
		client: client,
		model:  model,
		logger: logger.With().Str("component", "tagger").Logger(),
	}
}

// Tag never raises. A blank transcript short-circuits to the unprocessed
// fallback without a remote call; a remote or parsing failure yields the
// error fallback; anything escaping beyond that is recovered into the
// unprocessed fallback. The two fallback results stay distinct on purpose:
// operators read "unprocessed" as "nothing to tag" and "error" as "tagging
// broke after valid input".
func (t *OpenAI) Tag(ctx context.Context, transcript string) (res models.TaggingResult) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().Interface("panic", r).Msg("tagger panicked")
			res = models.TaggingResult{Title: fallbackTitle, Tags: []string{"unprocessed"}}
		}
	}()

	return t.tag(ctx, transcript)
}

func (t *OpenAI) tag(ctx context.Context, transcript string) models.TaggingResult {
	if strings.TrimSpace(transcript) == "" {
		return models.TaggingResult{Title: fallbackTitle, Tags: []string{"unprocessed"}}
	}

	if runes := []rune(transcript); len(runes) > maxTranscriptChars {
		transcript = string(runes[:maxTranscriptChars])
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.model,
		Temperature: 0.7,
		MaxTokens:   200,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(taggingPrompt, transcript),
			},
		},
	})
	if err != nil {
		t.logger.Error().Err(err).Msg("tagging request failed")
		return models.TaggingResult{Title: errorTitle, Tags: []string{"error"}}
	}
	if len(resp.Choices) == 0 {
		t.logger.Error().Msg("tagging response had no choices")
		return models.TaggingResult{Title: errorTitle, Tags: []string{"error"}}
	}

	text := stripFence(strings.TrimSpace(resp.Choices[len(resp.Choices)-1].Message.Content))

	var raw models.TaggingResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		t.logger.Error().Err(err).Str("response", text).Msg("tagging response was not valid JSON")
		return models.TaggingResult{Title: errorTitle, Tags: []string{"error"}}
	}

	return validate(raw)
}

func validate(raw models.TaggingResult) models.TaggingResult {
	tags := make([]string, 0, len(raw.Tags))
	for _, tag := range raw.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	title := raw.Title
	if title == "" || len([]rune(title)) > maxTitleChars {
		title = fallbackTitle
	}

	return models.TaggingResult{Title: title, Tags: tags}
}

// stripFence drops a surrounding markdown code fence: when the first line is
// a fence marker, the first and last lines are discarded before parsing.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}
