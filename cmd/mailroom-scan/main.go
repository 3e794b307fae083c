package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/config"
	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
	"github.com/jcheng510/ai-erp-system-sub004/internal/di"
	"github.com/jcheng510/ai-erp-system-sub004/internal/factory"
	"github.com/jcheng510/ai-erp-system-sub004/internal/logging"
	"github.com/jcheng510/ai-erp-system-sub004/internal/scheduler"
)

var (
	// Mode flags
	scanMailbox = flag.Bool("scan", false, "Run one mailbox scan instead of classifying a single message")
	inputFile   = flag.String("file", "", "Input email file (use stdin if not specified)")

	// AI provider flags
	provider    = flag.String("provider", "", "AI provider (openai, bedrock, gemini); empty disables AI")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for AI response")
	temperature = flag.Float64("temperature", 0.1, "Temperature for AI generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for AI generation")
	maxBodySize = flag.Int("max-body-size", 4096, "Maximum message body size to send to the AI")

	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")
	bedrockRegion   = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID  = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// Scan flags
	maxMessages = flag.Int("max-messages", 50, "Maximum messages per scan")
	autoFile    = flag.Bool("auto-file", false, "Execute resolved filings instead of leaving them pending")

	// Output flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *scanMailbox {
		runScan(logger)
		return
	}
	classifyOne(logger)
}

// runScan triggers a single inbox scan through the full wiring.
func runScan(logger *zap.Logger) {
	container, err := di.BuildContainer()
	if err != nil {
		logger.Fatal("Failed to build dependency container", zap.Error(err))
	}

	err = container.Invoke(func(sched *scheduler.Scheduler) {
		if !sched.TriggerScan(context.Background()) {
			logger.Fatal("A scan is already in flight")
		}
		printScanStatus(sched.Status())
	})
	if err != nil {
		logger.Fatal("Scan failed", zap.Error(err))
	}
}

func printScanStatus(st scheduler.Status) {
	result := st.LastResult
	if result == nil {
		fmt.Println("Scan produced no result")
		return
	}
	fmt.Printf("Scanned:    %d\n", result.MessagesScanned)
	fmt.Printf("Processed:  %d\n", result.MessagesProcessed)
	fmt.Printf("Skipped:    %d\n", result.MessagesSkipped)
	fmt.Printf("Filed:      %d\n", result.AttachmentsFiled)
	fmt.Printf("Duration:   %s\n", result.Duration)
	for _, e := range result.Errors {
		fmt.Printf("Error: %s\n", e)
	}
	if st.LastError != "" {
		fmt.Printf("Scan error: %s\n", st.LastError)
	}
}

// classifyOne reads a raw message from a file or stdin and prints its
// classification without touching the database.
func classifyOne(logger *zap.Logger) {
	cfg := loadConfig(logger)

	var aiClient core.AIClient
	if *provider != "" || *configFile != "" {
		textProcessor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()
		client, err := factory.NewAIFactory(cfg, logger, textProcessor).CreateAIClient()
		if err != nil {
			logger.Fatal("Failed to create AI client", zap.Error(err))
		}
		aiClient = client
	}

	var reader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		reader = file
	} else {
		reader = os.Stdin
		logger.Info("Reading message from stdin")
	}

	msg, err := readMessage(reader)
	if err != nil {
		logger.Fatal("Failed to parse message", zap.Error(err))
	}

	classifier := core.NewSpamClassifier(nil, nil, aiClient, nil, logger, 0, 0)
	cls := classifier.Classify(context.Background(), msg)

	fmt.Printf("Sender:         %s\n", cls.SenderEmail)
	fmt.Printf("Category:       %s\n", cls.Category)
	fmt.Printf("Confidence:     %.2f\n", cls.Confidence)
	fmt.Printf("Spam score:     %.2f\n", cls.SpamScore)
	fmt.Printf("Reputation:     %s\n", cls.Reputation)
	fmt.Printf("Should process: %t\n", cls.ShouldProcess)
	if len(cls.Reasons) > 0 {
		fmt.Printf("Reasons:        %s\n", strings.Join(cls.Reasons, "; "))
	}
	if len(cls.MatchedPatterns) > 0 {
		fmt.Printf("Patterns:       %s\n", strings.Join(cls.MatchedPatterns, ", "))
	}
}

// readMessage parses a raw RFC 5322 message into the internal shape.
func readMessage(r io.Reader) (*core.MailMessage, error) {
	parsed, err := mail.ReadMessage(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}

	msg := &core.MailMessage{
		Subject: parsed.Header.Get("Subject"),
		Headers: make(map[string]string),
	}
	for key := range parsed.Header {
		msg.Headers[key] = parsed.Header.Get(key)
	}
	if addr, err := mail.ParseAddress(parsed.Header.Get("From")); err == nil {
		msg.SenderName = addr.Name
		msg.SenderEmail = strings.ToLower(addr.Address)
	}
	if addr, err := mail.ParseAddress(parsed.Header.Get("To")); err == nil {
		msg.Recipient = strings.ToLower(addr.Address)
	}

	body, err := io.ReadAll(parsed.Body)
	if err != nil {
		return nil, err
	}
	msg.BodyText = string(body)

	return msg, nil
}

// loadConfig builds configuration from a file when given, otherwise from
// command line flags.
func loadConfig(logger *zap.Logger) *config.Config {
	if *configFile != "" {
		cfg, err := config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		return cfg
	}
	return createConfigFromFlags()
}

// createConfigFromFlags builds a configuration instance from command line
// flags.
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("ai.provider", *provider)
	v.Set("ai.enabled", *provider != "")

	v.Set("openai.api_key", *openaiAPIKey)
	v.Set("openai.model_name", *openaiModelName)
	v.Set("openai.max_tokens", *maxTokens)
	v.Set("openai.temperature", *temperature)
	v.Set("openai.top_p", *topP)
	v.Set("openai.max_body_size", *maxBodySize)

	v.Set("bedrock.region", *bedrockRegion)
	v.Set("bedrock.model_id", *bedrockModelID)
	v.Set("bedrock.max_tokens", *maxTokens)
	v.Set("bedrock.temperature", *temperature)
	v.Set("bedrock.top_p", *topP)
	v.Set("bedrock.max_body_size", *maxBodySize)

	v.Set("gemini.api_key", *geminiAPIKey)
	v.Set("gemini.model_name", *geminiModelName)
	v.Set("gemini.max_tokens", *maxTokens)
	v.Set("gemini.temperature", *temperature)
	v.Set("gemini.top_p", *topP)
	v.Set("gemini.max_body_size", *maxBodySize)

	v.Set("scanner.max_messages", *maxMessages)
	v.Set("scanner.auto_file", *autoFile)

	return config.NewFromViper(v)
}
