// Package mcpadapter exposes the eligibility pipeline as MCP tools over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/core/ports"
)

const (
	serverName    = "social-support-eligibility"
	serverVersion = "1.0.0"

	ToolEvaluate  = "evaluate_eligibility"
	ToolExplain   = "explain_features"
	ToolRecommend = "recommend_support"
)

type Server struct {
	evaluator ports.Evaluator
	advisor   ports.Advisor
	logger    *slog.Logger
	mcp       *server.MCPServer
}

func NewServer(evaluator ports.Evaluator, advisor ports.Advisor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		evaluator: evaluator,
		advisor:   advisor,
		logger:    logger,
		mcp:       server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolEvaluate,
		mcp.WithDescription("Evaluate a social support application from documents under the server's evaluation documents root."),
		mcp.WithString("user_id", mcp.Description("Applicant id; generated when empty.")),
		mcp.WithString("assets_path", mcp.Description("Assets and liabilities spreadsheet (.xlsx).")),
		mcp.WithString("bank_statement_path", mcp.Description("Bank statement PDF.")),
		mcp.WithString("id_card_path", mcp.Description("Identity document image or .txt transcript.")),
		mcp.WithString("resume_path", mcp.Description("Resume DOCX.")),
	), s.evaluate)

	s.mcp.AddTool(mcp.NewTool(ToolExplain,
		mcp.WithDescription("Explain the eligibility model's view of an extracted feature vector."),
		mcp.WithNumber("income", mcp.Required(), mcp.Description("Monthly income in AED.")),
		mcp.WithNumber("employment_years", mcp.Required(), mcp.Description("Years of experience.")),
		mcp.WithNumber("age", mcp.Description("Age in years; omit when unknown.")),
		mcp.WithNumber("net_worth", mcp.Required(), mcp.Description("Sum of asset values in AED.")),
		mcp.WithNumber("family_size", mcp.Description("Household size, default 3.")),
	), s.explain)

	s.mcp.AddTool(mcp.NewTool(ToolRecommend,
		mcp.WithDescription("List support recommendations for a decision text."),
		mcp.WithString("decision", mcp.Required(), mcp.Description("Decision text, e.g. APPROVED or SOFT DECLINE.")),
	), s.recommend)
}

func (s *Server) evaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs := domain.DocumentSet{
		Assets:        request.GetString("assets_path", ""),
		BankStatement: request.GetString("bank_statement_path", ""),
		IDCard:        request.GetString("id_card_path", ""),
		Resume:        request.GetString("resume_path", ""),
	}
	result, err := s.evaluator.Evaluate(ctx, request.GetString("user_id", ""), docs)
	if err != nil {
		s.logger.ErrorContext(ctx, "mcp_tool_failed", "tool", ToolEvaluate, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) explain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fv, err := featureVector(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.advisor.Explain(ctx, fv)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (s *Server) recommend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	decision, err := request.RequireString("decision")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"decision":        decision,
		"recommendations": s.advisor.Recommend(ctx, decision),
	})
}

func featureVector(request mcp.CallToolRequest) (domain.FeatureVector, error) {
	fv := domain.DefaultFeatureVector()

	income, err := request.RequireFloat("income")
	if err != nil {
		return fv, err
	}
	employment, err := request.RequireFloat("employment_years")
	if err != nil {
		return fv, err
	}
	netWorth, err := request.RequireFloat("net_worth")
	if err != nil {
		return fv, err
	}
	if employment < 0 {
		return fv, fmt.Errorf("employment_years must not be negative")
	}

	fv.Income = int64(math.Round(income))
	fv.EmploymentYears = int(employment)
	fv.NetWorth = int64(math.Round(netWorth))

	if _, ok := request.GetArguments()["age"]; ok {
		age := request.GetFloat("age", -1)
		if age < 0 {
			return fv, fmt.Errorf("age must be a non-negative number")
		}
		fv.Age = domain.KnownAge(int(age))
	}
	if size := request.GetFloat("family_size", 0); size >= 1 {
		fv.FamilySize = int(size)
	}
	return fv, nil
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
