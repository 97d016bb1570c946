package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/drinkwell/internal/service"
	"github.com/drinkwell/internal/stats"
	"github.com/drinkwell/internal/units"
	"github.com/gin-gonic/gin"
)

// LogWaterParams 是 log_water 工具的参数
type LogWaterParams struct {
	Amount    float64 `json:"amount" description:"Amount of water, in ml unless unit is oz"`
	Unit      string  `json:"unit,omitempty" description:"ml or oz"`
	Timestamp string  `json:"timestamp,omitempty" description:"RFC3339 time, defaults to now"`
	Note      string  `json:"note,omitempty" description:"Optional note"`
}

// GetStatsParams 是 get_stats 工具的参数
type GetStatsParams struct {
	Days int `json:"days,omitempty" description:"Number of days to include, defaults to 7"`
}

type mcpToolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

func (a *API) mcpTools() map[string]mcpToolHandler {
	return map[string]mcpToolHandler{
		"log_water":       a.mcpLogWater,
		"get_today":       a.mcpGetToday,
		"get_stats":       a.mcpGetStats,
		"open_add_intake": a.mcpOpenAddIntake,
	}
}

// HandleMCP 处理 MCP tools/call 请求
func (a *API) HandleMCP(c *gin.Context) {
	var request protocol.CallToolRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&request); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	tool, ok := a.mcpTools()[request.Name]
	if !ok {
		respondError(c, http.StatusNotFound, fmt.Sprintf("Unknown tool: %s", request.Name))
		return
	}

	result, err := tool(c.Request.Context(), &request)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

func (a *API) mcpLogWater(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LogWaterParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	amount := params.Amount
	if strings.EqualFold(strings.TrimSpace(params.Unit), "oz") {
		amount = units.OuncesToMilliliters(amount)
	}
	input := service.IntakeInput{Amount: amount, Note: params.Note}
	if raw := strings.TrimSpace(params.Timestamp); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp: %w", err)
		}
		input.Timestamp = ts.In(a.app.Location())
	}

	record, err := a.app.AddIntake(ctx, input)
	storageFailed := errors.Is(err, service.ErrStorage)
	if err != nil && !storageFailed {
		return nil, err
	}

	return createJSONResponse(map[string]any{
		"id":             record.ID,
		"amount":         record.Amount,
		"timestamp":      record.Timestamp.Format(time.RFC3339),
		"today_total":    a.app.TodayTotal(),
		"storage_failed": storageFailed,
	})
}

func (a *API) mcpGetToday(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	now := a.app.Now()
	goal := a.app.Preferences.Get().DailyGoalML()
	total := stats.DailyTotal(a.app.Intakes.Entries(), now)

	return createJSONResponse(map[string]any{
		"date":      stats.StartOfDay(now).Format(dateFormat),
		"total":     total,
		"goal":      goal,
		"progress":  stats.Progress(total, goal),
		"remaining": max(goal-total, 0),
	})
}

func (a *API) mcpGetStats(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetStatsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.Days <= 0 {
		params.Days = 7
	}
	if params.Days > 366 {
		params.Days = 366
	}

	summary := a.app.Summary()
	return createJSONResponse(map[string]any{
		"days":               toDayTotals(stats.LastNDays(a.app.Intakes.Entries(), params.Days, a.app.Now())),
		"goal":               summary.Goal,
		"days_reaching_goal": summary.DaysReachingGoal,
		"current_streak":     summary.CurrentStreak,
		"longest_streak":     summary.LongestStreak,
		"monthly_average":    summary.MonthlyAverage,
	})
}

func (a *API) mcpOpenAddIntake(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return createJSONResponse(map[string]any{"intent": a.app.OpenAddIntake("mcp")})
}

// extractParams 通过 JSON 往返把工具参数解码到结构体
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal parameters: %w", err)
	}
	return nil
}

func createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
