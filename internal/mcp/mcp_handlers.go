package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/biomarker/core"
	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	models  *core.ModelHolder
}

// model returns the published model, loading or training it from the base config on first use.
func (h *toolHandler) model(ctx context.Context) (*core.Model, error) {
	return h.models.LoadOrInit(ctx, func(ctx context.Context) (*core.Model, error) {
		return core.LoadModel(core.WithSuppressHeader(ctx), h.baseCfg, h.mgr)
	})
}

// resolvePanel builds the panel of a request from the panel and set arguments.
// A request without either falls back to the configured panel.
func (h *toolHandler) resolvePanel(request mcp.CallToolRequest) (schema.Panel, error) {
	raw := strings.TrimSpace(request.GetString("panel", ""))
	set := request.GetString("set", "")
	if raw == "" && strings.TrimSpace(set) == "" {
		if len(h.baseCfg.Panel) == 0 {
			return nil, errors.New("a panel or set argument is required")
		}
		return h.baseCfg.Panel.Clone(), nil
	}

	panel := schema.Panel{}
	if raw != "" {
		parsed, err := contract.ParsePanel([]byte(raw))
		if err != nil {
			return nil, err
		}
		panel = parsed
	}
	inline, err := schema.ParseAssignments(set)
	if err != nil {
		return nil, err
	}
	panel = panel.Merge(inline)
	if len(panel) == 0 {
		return nil, errors.New("panel has no markers")
	}
	if err := panel.Validate(); err != nil {
		return nil, err
	}
	return panel, nil
}

// toolJSON renders v as indented JSON tool output.
func toolJSON(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// referenceTable returns the configured table or the built-in one.
func (h *toolHandler) referenceTable() schema.ReferenceTable {
	if h.baseCfg.Reference != nil {
		return h.baseCfg.Reference
	}
	return schema.DefaultReferenceTable()
}

func (h *toolHandler) handleComputeFeatures(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	panel, err := h.resolvePanel(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid panel: %v", err)), nil
	}

	analysis, err := core.NewFeatureEngine(h.referenceTable()).Analyze(panel)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("feature computation failed: %v", err)), nil
	}
	return toolJSON(analysis)
}

func (h *toolHandler) handlePredictScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	panel, err := h.resolvePanel(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid panel: %v", err)), nil
	}
	cfg.Panel = panel
	if n := request.GetInt("samples", 0); n != 0 {
		if n < 1 || n > contract.MaxSamples {
			return mcp.NewToolResultError(fmt.Sprintf("samples must be between 1 and %d", contract.MaxSamples)), nil
		}
		cfg.Samples = n
	}
	if seed := request.GetInt("seed", -1); seed >= 0 {
		cfg.Seed = uint64(seed)
	}
	ctx = core.WithSuppressHeader(ctx)

	// A different training setup gets its own model; everything else shares the published one.
	if cfg.Samples != h.baseCfg.Samples || cfg.Seed != h.baseCfg.Seed {
		pred, err := core.RunPredict(ctx, cfg, h.mgr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("prediction failed: %v", err)), nil
		}
		return toolJSON(pred)
	}

	if _, err := h.model(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("model unavailable: %v", err)), nil
	}
	pred, err := core.ServePredict(ctx, cfg, h.mgr, h.models)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("prediction failed: %v", err)), nil
	}
	return toolJSON(pred)
}

func (h *toolHandler) handleForecastTrends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	panel, err := h.resolvePanel(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid panel: %v", err)), nil
	}
	cfg.Panel = panel
	if cfg.Horizon <= 0 {
		cfg.Horizon = contract.DefaultHorizon
	}
	if horizon := request.GetInt("horizon", 0); horizon != 0 {
		if horizon < 1 || horizon > contract.MaxHorizon {
			return mcp.NewToolResultError(fmt.Sprintf("horizon must be between 1 and %d", contract.MaxHorizon)), nil
		}
		cfg.Horizon = horizon
	}
	if seed := request.GetInt("seed", -1); seed >= 0 {
		cfg.Seed = uint64(seed)
	}

	ctx = core.WithSuppressHeader(ctx)
	if _, err := h.model(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("model unavailable: %v", err)), nil
	}
	series, err := core.ServeForecast(ctx, cfg, h.mgr, h.models)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("forecast failed: %v", err)), nil
	}
	return toolJSON(series)
}

func (h *toolHandler) handleReferenceTable(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table := h.referenceTable()
	markers := table.Markers()
	entries := make([]schema.ReferenceEntry, 0, len(markers))
	for _, m := range markers {
		entries = append(entries, table[m])
	}
	return toolJSON(map[string]any{
		"markers":        entries,
		"system_weights": table.SystemWeights(),
	})
}
