package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/maheshrc27/composer-api/internal/backend"
)

// imagePromptLimit bounds the caption text reused as an image prompt.
const imagePromptLimit = 500

// CaptionProvider generates one caption for one row. Batch loops stay
// sequential per upstream rate limits; providers must not fan out.
type CaptionProvider interface {
	GenerateCaption(ctx context.Context, userID int64, prompt, context string) (string, error)
}

// ImageProvider turns a caption-derived prompt into a hosted image URL.
type ImageProvider interface {
	GenerateImage(ctx context.Context, userID int64, prompt string) (string, error)
}

// backendAIProvider proxies generation to the scheduling backend's AI
// endpoints. The default provider.
type backendAIProvider struct {
	client *backend.Client
}

func NewBackendAIProvider(client *backend.Client) *backendAIProvider {
	return &backendAIProvider{client: client}
}

func (p *backendAIProvider) GenerateCaption(ctx context.Context, userID int64, prompt, context string) (string, error) {
	return p.client.GenerateCaption(ctx, userID, prompt, context)
}

func (p *backendAIProvider) GenerateImage(ctx context.Context, userID int64, prompt string) (string, error) {
	return p.client.GenerateImage(ctx, userID, prompt)
}

// anthropicCaptionProvider calls Claude directly instead of going through
// the backend. Selected with CAPTION_PROVIDER=anthropic.
type anthropicCaptionProvider struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicCaptionProvider(apiKey, model string) CaptionProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &anthropicCaptionProvider{
		client: &client,
		model:  model,
	}
}

func (p *anthropicCaptionProvider) GenerateCaption(ctx context.Context, userID int64, prompt, context string) (string, error) {
	fullPrompt := fmt.Sprintf(
		"Write a social media caption. Strategy: %s. Post context: %s. Reply with the caption text only.",
		prompt, context,
	)

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fullPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call Claude API: %w", err)
	}

	var caption string
	for _, block := range message.Content {
		if block.Type == "text" {
			caption = block.Text
			break
		}
	}
	if caption == "" {
		return "", errors.New("empty caption from Claude")
	}
	return caption, nil
}

// truncatePrompt trims caption text to the image-prompt bound, backing up
// to a rune boundary so a multi-byte character is never split.
func truncatePrompt(caption string) string {
	if len(caption) <= imagePromptLimit {
		return caption
	}
	cut := imagePromptLimit
	for cut > 0 && !utf8.RuneStart(caption[cut]) {
		cut--
	}
	return caption[:cut]
}
