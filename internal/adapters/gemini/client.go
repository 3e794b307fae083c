// Package gemini implements the core AI port using Google Gemini.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/jcheng510/ai-erp-system-sub004/internal/aiprompt"
	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
	"github.com/jcheng510/ai-erp-system-sub004/internal/utils"
)

// Client is an implementation of the core.AIClient interface using Google
// Gemini.
type Client struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClient creates a new Gemini-backed AI client.
func NewClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Client, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Client{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the underlying Gemini client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ClassifyMessage asks the model for a message-level legitimacy verdict.
func (c *Client) ClassifyMessage(ctx context.Context, msg *core.MailMessage) (*core.AIMessageResult, error) {
	body := c.textProcessor.ProcessText(msg.BodyText, c.maxBodySize)
	responseText, err := c.generate(ctx, aiprompt.BuildMessagePrompt(msg, body))
	if err != nil {
		return nil, err
	}
	return aiprompt.ParseMessageResponse(responseText)
}

// ClassifyDocument asks the model for a structured document classification.
func (c *Client) ClassifyDocument(ctx context.Context, input core.DocumentInput) (*core.AIDocumentResult, error) {
	text := c.textProcessor.ProcessText(input.Text, c.maxBodySize)
	responseText, err := c.generate(ctx, aiprompt.BuildDocumentPrompt(input, text))
	if err != nil {
		return nil, err
	}
	return aiprompt.ParseDocumentResponse(responseText)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
