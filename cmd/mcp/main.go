// Command mcp exposes the assistant over the Model Context Protocol so MCP
// clients can ask questions, search the corpus and read corpus statistics.
// The protocol runs on stdout, logs go to stderr.
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wendkuni/burkina-culture-assistant/internal/bootstrap"
	"github.com/wendkuni/burkina-culture-assistant/internal/config"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/ports"
	"github.com/wendkuni/burkina-culture-assistant/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	s := newServer(app)
	slog.Info("mcp server ready")
	if err := server.ServeStdio(s); err != nil && ctx.Err() == nil {
		log.Fatalf("mcp server error: %v", err)
	}
}

func newServer(app *bootstrap.App) *server.MCPServer {
	s := server.NewMCPServer(
		"burkina-culture-assistant",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("ask_question",
		mcp.WithDescription("Answer a question about Burkina Faso culture, grounded in the indexed corpus with cited sources."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer."),
		),
		mcp.WithBoolean("use_llm",
			mcp.Description("Generate the answer with the LLM tiers. When false the extractive template composes it."),
			mcp.DefaultBool(true),
		),
		mcp.WithNumber("n_results",
			mcp.Description("How many documents to retrieve."),
		),
	), askHandler(app.AskUC))

	s.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Semantic search over the corpus without answer generation."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The text to search for."),
		),
		mcp.WithNumber("n_results",
			mcp.Description("How many documents to return."),
		),
	), searchHandler(app.SearchUC))

	s.AddTool(mcp.NewTool("corpus_stats",
		mcp.WithDescription("Document count, categories and sources of the indexed corpus."),
	), statsHandler(app.StatsUC))

	return s
}

func askHandler(asker ports.Asker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		answer, err := asker.Ask(ctx, domain.Query{
			Question:     question,
			ResultCount:  request.GetInt("n_results", 0),
			UseGenerator: request.GetBool("use_llm", true),
		})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("ask failed", err), nil
		}

		return jsonResult(struct {
			Question string          `json:"question"`
			Answer   string          `json:"answer"`
			Sources  []domain.Source `json:"sources"`
			Backend  string          `json:"backend_used"`
			Grounded bool            `json:"grounded"`
		}{
			Question: question,
			Answer:   answer.Text,
			Sources:  answer.Sources,
			Backend:  string(answer.Metadata.Backend),
			Grounded: answer.Metadata.Grounded,
		})
	}
}

func searchHandler(searcher ports.Searcher) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		matches, err := searcher.Search(ctx, question, request.GetInt("n_results", 0))
		if err != nil {
			return mcp.NewToolResultErrorFromErr("search failed", err), nil
		}

		return jsonResult(struct {
			Question string                  `json:"question"`
			Results  []domain.RetrievedMatch `json:"results"`
			Count    int                     `json:"count"`
		}{
			Question: question,
			Results:  matches,
			Count:    len(matches),
		})
	}
}

func statsHandler(inspector ports.CorpusInspector) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := inspector.Stats(ctx)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("stats failed", err), nil
		}
		return jsonResult(stats)
	}
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
