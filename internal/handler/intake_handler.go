package handler

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/drinkwell/internal/db"
	"github.com/drinkwell/internal/service"
	"github.com/drinkwell/internal/units"
	"github.com/gin-gonic/gin"
)

type intakePayload struct {
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	Timestamp string  `json:"timestamp"`
	Note      string  `json:"note"`
}

type intakeResponse struct {
	ID            string        `json:"id"`
	Amount        float64       `json:"amount"`
	DisplayAmount string        `json:"display_amount"`
	Timestamp     time.Time     `json:"timestamp"`
	Note          string        `json:"note,omitempty"`
	NoteHTML      template.HTML `json:"note_html,omitempty"`
}

func (a *API) intakeToResponse(record db.IntakeRecord) intakeResponse {
	system := a.app.Preferences.Get().UnitSystem()
	return intakeResponse{
		ID:            record.ID,
		Amount:        record.Amount,
		DisplayAmount: system.FormatVolume(record.Amount),
		Timestamp:     record.Timestamp.In(a.app.Location()),
		Note:          record.Note,
		NoteHTML:      service.RenderNote(record.Note),
	}
}

// ListIntakes 返回 [start, end) 区间内的饮水记录，按时间倒序
func (a *API) ListIntakes(c *gin.Context) {
	loc := a.app.Location()
	start, err := parseDateQuery(c.Query("start"), loc)
	if err != nil {
		respondError(c, http.StatusBadRequest, "开始日期格式错误")
		return
	}
	end, err := parseDateQuery(c.Query("end"), loc)
	if err != nil {
		respondError(c, http.StatusBadRequest, "结束日期格式错误")
		return
	}

	records := a.app.Intakes.List(start, end)
	items := make([]intakeResponse, 0, len(records))
	for _, record := range records {
		items = append(items, a.intakeToResponse(record))
	}

	c.JSON(http.StatusOK, gin.H{
		"intakes": items,
		"total":   len(items),
		"pending": a.app.Intakes.Pending(),
	})
}

// CreateIntake 新增一条饮水记录，amount 默认按毫升解析，unit=oz 时按盎司换算
func (a *API) CreateIntake(c *gin.Context) {
	var payload intakePayload
	if !bindJSON(c, &payload, "饮水记录参数错误") {
		return
	}

	input, err := a.parseIntakePayload(payload)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := a.app.AddIntake(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrStorage) {
			respondWithStorageWarning(c, gin.H{"intake": a.intakeToResponse(record)}, a.app.Intakes.Pending())
			return
		}
		respondServiceError(c, err, "新增饮水记录失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"intake": a.intakeToResponse(record)})
}

// DeleteIntake 删除一条饮水记录
func (a *API) DeleteIntake(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	if err := a.app.RemoveIntake(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrStorage) {
			respondWithStorageWarning(c, gin.H{"id": id}, a.app.Intakes.Pending())
			return
		}
		respondServiceError(c, err, "删除饮水记录失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SaveIntakes 重试落盘尚未保存的变更
func (a *API) SaveIntakes(c *gin.Context) {
	if err := a.app.SaveIntakes(c.Request.Context()); err != nil {
		if errors.Is(err, service.ErrStorage) {
			respondWithStorageWarning(c, gin.H{}, a.app.Intakes.Pending())
			return
		}
		respondServiceError(c, err, "保存失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pending": a.app.Intakes.Pending()})
}

func (a *API) parseIntakePayload(payload intakePayload) (service.IntakeInput, error) {
	amount := payload.Amount
	switch strings.ToLower(strings.TrimSpace(payload.Unit)) {
	case "", "ml":
	case "oz":
		amount = units.OuncesToMilliliters(amount)
	default:
		return service.IntakeInput{}, errors.New("不支持的单位")
	}

	input := service.IntakeInput{Amount: amount, Note: payload.Note}
	if raw := strings.TrimSpace(payload.Timestamp); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return service.IntakeInput{}, errors.New("时间格式错误")
		}
		input.Timestamp = ts.In(a.app.Location())
	}
	return input, nil
}
