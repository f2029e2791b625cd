package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/argonaut-labs/mentorcore/internal/mentor"
)

// buildCore loads the configured Config, wires an Ollama-backed
// generative client, and constructs the Core every subcommand runs
// against, mirroring the teacher's "one process-wide object, built once
// in main before Serve/Run" composition.
func buildCore() (*mentor.Core, error) {
	cfg, err := mentor.LoadConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(devLogging)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	var generative mentor.GenerativeClient
	if !cfg.DynamicDisabled {
		timeout := time.Duration(cfg.GenerationTimeoutSeconds) * time.Second
		generative = mentor.NewOllamaGenerativeClient(ollamaURL, ollamaModel, timeout)
	}

	return mentor.NewCore(cfg, generative, logger)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP stdio server",
		Long:  "Starts an MCP server on stdio exposing a single mentor_query tool backed by the Mentor Response Core.",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := buildCore()
			if err != nil {
				return err
			}
			if path := configPath; path != "" {
				if stop, err := core.WatchConfigFile(path); err == nil {
					defer stop()
				}
			}
			return serveMCP(core)
		},
	}
}

func serveMCP(core *mentor.Core) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mentorctl",
		Version: Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mentor_query",
		Description: "Ask the Mentor Response Core a developer question. Answers architecture, debugging, and process questions from a canned response bank when confident, or a local generative model otherwise.\n\nArgs:\n  query: The question text\n  intent: Optional caller-declared intent (architecture, debugging, process)\n  context: Optional extra context text\n  force_dynamic: Skip the static bank and always generate\n\nReturns the answer text plus routing metadata.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, handleMentorQuery(core))

	return server.Run(context.Background(), &mcp.StdioTransport{})
}

type mentorQueryInput struct {
	Query        string `json:"query" jsonschema:"The developer question text"`
	Intent       string `json:"intent,omitempty" jsonschema:"Optional caller-declared intent"`
	Context      string `json:"context,omitempty" jsonschema:"Optional extra context text"`
	ForceDynamic bool   `json:"force_dynamic,omitempty" jsonschema:"Skip the static bank and always generate"`
}

type mentorQueryOutput struct {
	Text       string  `json:"text"`
	Route      string  `json:"route"`
	Reason     string  `json:"reason"`
	Generated  bool    `json:"generated"`
	CacheHit   bool    `json:"cache_hit"`
	Confidence float64 `json:"confidence"`
	LatencyMS  int64   `json:"latency_ms"`
}

func handleMentorQuery(core *mentor.Core) func(context.Context, *mcp.CallToolRequest, mentorQueryInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input mentorQueryInput) (*mcp.CallToolResult, any, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(60 * time.Second)
		}
		resp, err := core.Answer(ctx, mentor.Request{
			Query:    input.Query,
			Intent:   input.Intent,
			Context:  input.Context,
			Session:  uuid.New(),
			CallerID: "mcp",
			Flags:    mentor.Flags{ForceDynamic: input.ForceDynamic},
			Deadline: deadline,
		})
		if err != nil {
			return textResult(err.Error()), nil, nil
		}

		out := mentorQueryOutput{
			Text:       resp.Text,
			Route:      string(resp.Route),
			Reason:     string(resp.Reason),
			Generated:  resp.Generated,
			CacheHit:   resp.CacheHit,
			Confidence: resp.Confidence,
			LatencyMS:  resp.LatencyMS,
		}
		return textResult(resp.Text), out, nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
