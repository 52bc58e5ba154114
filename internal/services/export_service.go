package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/xuri/excelize/v2"
)

var historyColumns = []string{"Fecha", "Usuario", "Acción", "Campo", "Día", "Valor anterior", "Valor nuevo", "Cambio"}

type ExportService struct {
	historySvc *HistoryService
}

func NewExportService(historySvc *HistoryService) *ExportService {
	return &ExportService{historySvc: historySvc}
}

func historyRow(e models.TimecardAuditLog) []string {
	day := ""
	if e.WorkDate != nil {
		day = e.WorkDate.String()
	}
	return []string{
		e.ChangedAt.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("%d", e.ChangedBy),
		string(e.ActionType),
		string(e.FieldName),
		day,
		valueOrDash(e.OldValue),
		valueOrDash(e.NewValue),
		e.ChangeID,
	}
}

func valueOrDash(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func (s *ExportService) ExportCSV(ctx context.Context, timecardID uint, actor models.Actor) ([]byte, string, error) {
	entries, err := s.historySvc.ListFlat(ctx, timecardID, actor)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)
	_ = writer.Write(historyColumns)
	for _, e := range entries {
		_ = writer.Write(historyRow(e))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("timecard_%d_history_%s.csv", timecardID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ExportXLSX(ctx context.Context, timecardID uint, actor models.Actor) ([]byte, string, error) {
	entries, err := s.historySvc.ListFlat(ctx, timecardID, actor)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Historial"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Historial de hoja de tiempo #%d", timecardID))
	for i, col := range historyColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(sheet, cell, col)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for r, e := range entries {
		for c, value := range historyRow(e) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+4)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "H", "H", 38)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("timecard_%d_history_%s.xlsx", timecardID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ExportPDF(ctx context.Context, timecardID uint, actor models.Actor) ([]byte, string, error) {
	groups, err := s.historySvc.ListGrouped(ctx, timecardID, actor)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, tr(fmt.Sprintf("Historial de hoja de tiempo #%d", timecardID)))
	pdf.Ln(12)

	widths := []float64{40, 22, 30, 32, 26, 50, 50}
	for _, group := range groups {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 8, tr(fmt.Sprintf("%s  |  %s  |  usuario %d",
			group.ChangedAt.Format("2006-01-02 15:04:05"), group.ActionType, group.ChangedBy)))
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 9)
		for _, e := range group.Changes {
			row := historyRow(e)[:len(widths)]
			for i, value := range row {
				pdf.CellFormat(widths[i], 6, tr(value), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("timecard_%d_history_%s.pdf", timecardID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
