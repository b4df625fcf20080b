package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/mysql-mcp/internal/agent"
	"github.com/malbeclabs/mysql-mcp/internal/logger"
	mcpclient "github.com/malbeclabs/mysql-mcp/internal/mcp/client"
)

const defaultMCPURL = "http://localhost:8000/"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	envFileFlag := flag.String("env-file", "", "optional .env file to load")
	modelFlag := flag.String("model", string(anthropic.ModelClaudeSonnet4_5_20250929), "Anthropic model")
	maxRoundsFlag := flag.Int("max-rounds", 16, "maximum tool-calling rounds")
	progressFlag := flag.Bool("progress", false, "print query progress events to stderr")
	flag.Parse()

	log := logger.NewWithWriter(os.Stderr, *verboseFlag)

	if *envFileFlag != "" {
		if err := godotenv.Load(*envFileFlag); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	question, err := readQuestion(flag.Args(), os.Stdin)
	if err != nil {
		return err
	}

	mcpURL := os.Getenv("MCP_URL")
	if mcpURL == "" {
		mcpURL = defaultMCPURL
	}
	anthropicAPIKey := os.Getenv("ANTHROPIC_API_KEY")
	if anthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	clientCfg := mcpclient.Config{
		Logger:   log,
		Endpoint: mcpURL,
		Token:    os.Getenv("MCP_TOKEN"),
	}
	if *progressFlag {
		clientCfg.OnProgress = func(message string) {
			fmt.Fprintln(os.Stderr, message)
		}
	}
	mcpClient, err := mcpclient.New(ctx, clientCfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP client: %w", err)
	}
	defer mcpClient.Close()

	anthropicClient := anthropic.NewClient(option.WithAPIKey(anthropicAPIKey))
	mysqlAgent, err := agent.NewAnthropicAgent(&agent.AnthropicAgentConfig{
		Logger:           log,
		Messages:         &anthropicClient.Messages,
		Model:            anthropic.Model(*modelFlag),
		MaxTokens:        2000,
		MaxRounds:        *maxRoundsFlag,
		MaxToolResultLen: 20000,
		System:           agent.SystemPrompt,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	result, err := mysqlAgent.Run(ctx, mcpClient, []agent.Message{agent.UserMessage(question)}, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to run agent: %w", err)
	}
	log.Debug("agent: finished", "tool_calls", result.ToolCalls, "messages", len(result.FullConversation))
	return nil
}

// readQuestion takes the question from the arguments, or from stdin when
// there are none.
func readQuestion(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	var sb strings.Builder
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read question: %w", err)
	}
	question := strings.TrimSpace(sb.String())
	if question == "" {
		return "", fmt.Errorf("a question is required as an argument or on stdin")
	}
	return question, nil
}
