package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"yogastudio/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Занятия"
	detailSheet  = "Записи"
	cellTime     = "02.01.2006 15:04"
)

// Report is the bookings of every class starting in [From, To).
type Report struct {
	From     time.Time
	To       time.Time
	Classes  []*models.Class
	Bookings []*models.BookingRecord
	// Location is the zone cell times are shown in. Nil means time.Local.
	Location *time.Location
}

func (r *Report) cellTime(t time.Time) string {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(cellTime)
}

// FileName is the default name for the report on disk.
func (r *Report) FileName() string {
	return fmt.Sprintf("bookings_%s_to_%s.xlsx", r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
}

// Build renders the report into a new workbook. The caller closes it.
func (r *Report) Build() (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}
	fullStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8CBAD"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}

	r.writeSummary(f, headerStyle, fullStyle)
	r.writeDetails(f, headerStyle)
	return f, nil
}

func (r *Report) writeSummary(f *excelize.File, headerStyle, fullStyle int) {
	title := fmt.Sprintf("Период: %s - %s", r.From.Format("02.01.2006"), r.To.Format("02.01.2006"))
	_ = f.SetCellValue(summarySheet, "A1", title)
	_ = f.MergeCell(summarySheet, "A1", "F1")

	_ = f.SetSheetRow(summarySheet, "A2", &[]interface{}{"ID", "Занятие", "Начало", "Мест", "Записано", "Свободно"})
	_ = f.SetCellStyle(summarySheet, "A2", "F2", headerStyle)

	booked := make(map[int64]int, len(r.Classes))
	for _, b := range r.Bookings {
		booked[b.ClassID]++
	}

	for i, c := range r.Classes {
		row := i + 3
		cell, _ := excelize.CoordinatesToCellName(1, row)
		free := c.MaxParticipants - booked[c.ID]
		if free < 0 {
			free = 0
		}
		_ = f.SetSheetRow(summarySheet, cell, &[]interface{}{
			c.ID, c.Name, r.cellTime(c.StartsAt), c.MaxParticipants, booked[c.ID], free,
		})
		if free == 0 {
			last, _ := excelize.CoordinatesToCellName(6, row)
			_ = f.SetCellStyle(summarySheet, cell, last, fullStyle)
		}
	}

	_ = f.SetColWidth(summarySheet, "B", "B", 30)
	_ = f.SetColWidth(summarySheet, "C", "C", 18)
}

func (r *Report) writeDetails(f *excelize.File, headerStyle int) {
	_ = f.SetSheetRow(detailSheet, "A1", &[]interface{}{"Запись", "Занятие", "Начало", "Telegram ID", "ФИО", "Телефон", "Создана"})
	_ = f.SetCellStyle(detailSheet, "A1", "G1", headerStyle)

	for i, b := range r.Bookings {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(detailSheet, cell, &[]interface{}{
			b.BookingID, b.ClassName, r.cellTime(b.ClassStartsAt), b.TelegramID, b.FullName, b.Phone, r.cellTime(b.CreatedAt),
		})
	}

	_ = f.SetColWidth(detailSheet, "B", "B", 30)
	_ = f.SetColWidth(detailSheet, "C", "C", 18)
	_ = f.SetColWidth(detailSheet, "E", "E", 30)
}

// Save writes the workbook under dir and returns the file path.
func (r *Report) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f, err := r.Build()
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, r.FileName())
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}
