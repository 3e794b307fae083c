// Package openai implements the core AI port using the OpenAI chat API.
package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/aiprompt"
	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
	"github.com/jcheng510/ai-erp-system-sub004/internal/utils"
)

// Client is an implementation of the core.AIClient interface using OpenAI.
type Client struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClient creates a new OpenAI-backed AI client.
func NewClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Client {
	return &Client{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ClassifyMessage asks the model for a message-level legitimacy verdict.
func (c *Client) ClassifyMessage(ctx context.Context, msg *core.MailMessage) (*core.AIMessageResult, error) {
	body := c.textProcessor.ProcessText(msg.BodyText, c.maxBodySize)
	responseText, err := c.complete(ctx, aiprompt.BuildMessagePrompt(msg, body))
	if err != nil {
		return nil, err
	}
	return aiprompt.ParseMessageResponse(responseText)
}

// ClassifyDocument asks the model for a structured document classification.
func (c *Client) ClassifyDocument(ctx context.Context, input core.DocumentInput) (*core.AIDocumentResult, error) {
	text := c.textProcessor.ProcessText(input.Text, c.maxBodySize)
	responseText, err := c.complete(ctx, aiprompt.BuildDocumentPrompt(input, text))
	if err != nil {
		return nil, err
	}
	return aiprompt.ParseDocumentResponse(responseText)
}

// complete runs one chat completion and returns the raw response text.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a business-document triage system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: "json"}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
