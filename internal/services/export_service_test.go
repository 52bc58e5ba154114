package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportFixture(t *testing.T) (*ExportService, uint) {
	f := newFixture()
	tc := f.store.seed(models.TimecardStatusSubmitted, owner.ID)
	_, err := f.svc.Rejection().RejectWithEdits(context.Background(), RejectRequest{
		TransitionRequest: req(tc.ID, approver),
		Reason:            "Revisión de horario",
		Edits:             models.DailyEdits{models.MustParseDate("2024-01-15"): {models.FieldCheckIn: str("08:00")}},
	})
	require.NoError(t, err)
	return NewExportService(f.history), tc.ID
}

func TestExportService_CSV(t *testing.T) {
	svc, id := exportFixture(t)

	data, filename, err := svc.ExportCSV(context.Background(), id, approver)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, historyColumns, records[0])
	assert.Equal(t, []string{"check_in", "2024-01-15", "09:00:00", "08:00"}, []string{records[1][3], records[1][4], records[1][5], records[1][6]})
	assert.Equal(t, []string{"rejection_reason", "-"}, []string{records[2][3], records[2][5]})
	assert.Equal(t, []string{"status", "submitted", "rejected"}, []string{records[3][3], records[3][5], records[3][6]})
}

func TestExportService_XLSX(t *testing.T) {
	svc, id := exportFixture(t)

	data, filename, err := svc.ExportXLSX(context.Background(), id, owner)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	header, err := book.GetCellValue("Historial", "D3")
	require.NoError(t, err)
	assert.Equal(t, "Campo", header)
	field, err := book.GetCellValue("Historial", "D4")
	require.NoError(t, err)
	assert.Equal(t, "check_in", field)
}

func TestExportService_PDF(t *testing.T) {
	svc, id := exportFixture(t)

	data, filename, err := svc.ExportPDF(context.Background(), id, approver)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".pdf"))
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExportService_Forbidden(t *testing.T) {
	svc, id := exportFixture(t)

	_, _, err := svc.ExportCSV(context.Background(), id, models.Actor{ID: 99, Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrForbidden)
}
