package export

import (
	"testing"
	"time"

	"yogastudio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() *Report {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &Report{
		From: start.Truncate(24 * time.Hour),
		To:   start.AddDate(0, 0, 7),
		Classes: []*models.Class{
			{ID: 1, Name: "Хатха", StartsAt: start, MaxParticipants: 1},
			{ID: 2, Name: "Виньяса", StartsAt: start.Add(24 * time.Hour), MaxParticipants: 5},
		},
		Bookings: []*models.BookingRecord{
			{BookingID: 10, ClassID: 1, ClassName: "Хатха", ClassStartsAt: start, TelegramID: 55, FullName: "Анна", Phone: "+7999", CreatedAt: start.Add(-time.Hour)},
		},
		Location: time.FixedZone("MSK", 3*60*60),
	}
}

func TestReportSave(t *testing.T) {
	report := sampleReport()
	path, err := report.Save(t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, path, "bookings_2026-03-02_to_2026-03-09.xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, detailSheet}, f.GetSheetList())

	name, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Хатха", name)

	startsAt, err := f.GetCellValue(summarySheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "02.03.2026 12:00", startsAt)

	free, err := f.GetCellValue(summarySheet, "F3")
	require.NoError(t, err)
	assert.Equal(t, "0", free)

	free, err = f.GetCellValue(summarySheet, "F4")
	require.NoError(t, err)
	assert.Equal(t, "5", free)

	phone, err := f.GetCellValue(detailSheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, "+7999", phone)
}

func TestReportEmpty(t *testing.T) {
	report := &Report{From: time.Now(), To: time.Now().AddDate(0, 0, 1)}
	f, err := report.Build()
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(detailSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
