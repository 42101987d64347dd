package handler

import (
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	"github.com/yourusername/cinequiz/internal/handler/dto"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
)

// GetStats возвращает счётчики неудач сценариев группы (по умолчанию активной)
// GET /api/sessions/:id/stats?group=movies&format=json|xlsx
func (h *SessionHandler) GetStats(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	group := s.Controller.ActiveGroup()
	if raw := c.Query("group"); raw != "" {
		parsed, err := entity.ParsePromptGroup(raw)
		if err != nil {
			handleSessionError(c, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
			return
		}
		group = parsed
	}

	stats, err := s.Controller.SelectorStats(group)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	resp := dto.StatsResponse{
		Group:    group,
		Cached:   s.Controller.CachedCount(group),
		UseCases: make([]dto.UseCaseStatResponse, 0, len(stats)),
		Recent:   s.Recent.Sizes(),
	}
	for _, st := range stats {
		resp.UseCases = append(resp.UseCases, dto.UseCaseStatResponse{Name: st.Name, Score: st.Score})
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, resp)
	case "xlsx":
		filename := fmt.Sprintf("stats_%s_%s_%s", sanitizeFilename(s.PlayerID), group, time.Now().Format("20060102_150405"))
		exportStatsXLSX(c, &resp, filename)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format. Use 'json' or 'xlsx'"})
	}
}

// exportStatsXLSX экспортирует статистику в Excel с использованием StreamWriter
func exportStatsXLSX(c *gin.Context, stats *dto.StatsResponse, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Сценарии"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[StatsHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	if err := sw.SetRow("A1", []interface{}{"Группа", "Сценарий", "Неудач подряд"}); err != nil {
		log.Printf("[StatsHandler] Ошибка записи заголовков: %v", err)
	}
	for i, st := range stats.UseCases {
		row := []interface{}{string(stats.Group), sanitizeForExcel(st.Name), st.Score}
		if err := sw.SetRow(fmt.Sprintf("A%d", i+2), row); err != nil {
			log.Printf("[StatsHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}
	summaryRow := len(stats.UseCases) + 3
	if err := sw.SetRow(fmt.Sprintf("A%d", summaryRow), []interface{}{"Готово в кеше", stats.Cached}); err != nil {
		log.Printf("[StatsHandler] Ошибка записи итога: %v", err)
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[StatsHandler] Ошибка при Flush: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[StatsHandler] Ошибка записи Excel в response: %v", err)
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// sanitizeFilename оставляет в имени файла только безопасные символы
func sanitizeFilename(s string) string {
	return unsafeFilenameChars.ReplaceAllString(s, "_")
}

// sanitizeForExcel экранирует значения, которые Excel принял бы за формулу
func sanitizeForExcel(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
