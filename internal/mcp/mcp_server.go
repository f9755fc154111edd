// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/biomarker/core"
	"github.com/huangsam/biomarker/internal/contract"
)

// panelDescription documents the panel arguments shared by the panel tools.
const panelDescription = "Biomarker panel as a JSON or YAML object of marker: value pairs (e.g. {\"glucose\": 95, \"bmi\": 24})."

// setDescription documents inline marker assignments.
const setDescription = "Inline marker assignments applied on top of panel (e.g. 'glucose=95,hdl=55')."

// NewMCPServer initializes and configures the Biomarker MCP server without starting it.
// Model tools serve from models, which is filled on first use when empty.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager, models *core.ModelHolder) *server.MCPServer {
	if models == nil {
		models = core.NewModelHolder(nil)
	}
	s := server.NewMCPServer(
		"Biomarker Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		models:  models,
	}

	// --- 1. Tool: compute_features ---
	s.AddTool(mcp.NewTool("compute_features",
		mcp.WithDescription("Compute advanced health indices, organ system scores, insights and recommendations for a biomarker panel. Rule-based; no model is trained."),
		mcp.WithString("panel", mcp.Description(panelDescription)),
		mcp.WithString("set", mcp.Description(setDescription)),
	), h.handleComputeFeatures)

	// --- 2. Tool: predict_scores ---
	s.AddTool(mcp.NewTool("predict_scores",
		mcp.WithDescription("Predict the health risk flag and nine health scores for a biomarker panel using the trained model (cached when available)."),
		mcp.WithString("panel", mcp.Description(panelDescription)),
		mcp.WithString("set", mcp.Description(setDescription)),
		mcp.WithNumber("samples", mcp.Description("Number of synthetic training samples; a value other than the server default trains a separate model.")),
		mcp.WithNumber("seed", mcp.Description("Random seed for synthetic data and model training; a value other than the server default trains a separate model.")),
	), h.handlePredictScores)

	// --- 3. Tool: forecast_trends ---
	s.AddTool(mcp.NewTool("forecast_trends",
		mcp.WithDescription("Forecast weekly health scores, metabolite score, risk level and key biomarkers for a panel."),
		mcp.WithString("panel", mcp.Description(panelDescription)),
		mcp.WithString("set", mcp.Description(setDescription)),
		mcp.WithNumber("horizon", mcp.Description("Number of weeks to forecast (defaults to 12).")),
		mcp.WithNumber("seed", mcp.Description("Random seed for the forecast noise.")),
	), h.handleForecastTrends)

	// --- 4. Tool: reference_table ---
	s.AddTool(mcp.NewTool("reference_table",
		mcp.WithDescription("List the reference ranges, units, defaults and active organ system weights of every known biomarker."),
	), h.handleReferenceTable)

	return s
}

// StartMCPServer loads or trains the model once, then serves the Biomarker MCP server on stdio.
func StartMCPServer(ctx context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	m, err := core.LoadModel(core.WithSuppressHeader(ctx), baseCfg, mgr)
	if err != nil {
		return fmt.Errorf("failed to prepare model: %w", err)
	}
	s := NewMCPServer(baseCfg, mgr, core.NewModelHolder(m))
	return server.ServeStdio(s)
}
