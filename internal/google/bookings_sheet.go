package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"yogastudio/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	sheetName  = "Bookings"
	lastColumn = "H"
	timeLayout = "2006-01-02 15:04"
)

var ErrRowNotFound = errors.New("booking row not found")

var headerRow = []interface{}{
	"Booking ID", "Class ID", "Class", "Class time", "Telegram ID", "Full name", "Phone", "Booked at",
}

// BookingsSheet mirrors bookings into one spreadsheet tab, one row per booking keyed by column A.
type BookingsSheet struct {
	service       *sheets.Service
	spreadsheetID string
	loc           *time.Location

	mu       sync.RWMutex
	rowCache map[int64]int
}

// NewBookingsSheet connects with a service account. Times are written in loc.
func NewBookingsSheet(ctx context.Context, credentialsFile, spreadsheetID string, loc *time.Location) (*BookingsSheet, error) {
	credentials, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	sheet := newBookingsSheet(srv, spreadsheetID)
	if loc != nil {
		sheet.loc = loc
	}
	return sheet, nil
}

func newBookingsSheet(srv *sheets.Service, spreadsheetID string) *BookingsSheet {
	return &BookingsSheet{
		service:       srv,
		spreadsheetID: spreadsheetID,
		loc:           time.Local,
		rowCache:      make(map[int64]int),
	}
}

func cellRange(from, to string) string {
	return fmt.Sprintf("%s!%s:%s", sheetName, from, to)
}

func rowRange(row int) string {
	return cellRange(fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastColumn, row))
}

// TestConnection reads the header cell.
func (s *BookingsSheet) TestConnection(ctx context.Context) error {
	if _, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, cellRange("A1", "A1")).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets connection test: %w", err)
	}
	return nil
}

// EnsureHeader writes the column titles into row 1.
func (s *BookingsSheet) EnsureHeader(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rowRange(1), &sheets.ValueRange{
		Values: [][]interface{}{headerRow},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// WarmUpCache reloads the booking id -> row index map from column A.
func (s *BookingsSheet) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, cellRange("A", "A")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read booking ids: %w", err)
	}

	cache := make(map[int64]int, len(resp.Values))
	for i, row := range resp.Values {
		if id := cellID(row); id > 0 {
			cache[id] = i + 1
		}
	}

	s.mu.Lock()
	s.rowCache = cache
	s.mu.Unlock()
	return nil
}

// FindBookingRow returns the 1-based row of a booking or ErrRowNotFound.
func (s *BookingsSheet) FindBookingRow(ctx context.Context, bookingID int64) (int, error) {
	if bookingID <= 0 {
		return 0, fmt.Errorf("invalid booking id %d", bookingID)
	}
	if row, ok := s.cachedRow(bookingID); ok {
		return row, nil
	}
	if err := s.WarmUpCache(ctx); err != nil {
		return 0, err
	}
	if row, ok := s.cachedRow(bookingID); ok {
		return row, nil
	}
	return 0, ErrRowNotFound
}

// UpsertBooking rewrites the booking's row, appending one when absent.
func (s *BookingsSheet) UpsertBooking(ctx context.Context, record *models.BookingRecord) error {
	if record == nil {
		return errors.New("booking record is nil")
	}

	row, err := s.FindBookingRow(ctx, record.BookingID)
	if errors.Is(err, ErrRowNotFound) {
		return s.appendBooking(ctx, record)
	}
	if err != nil {
		return err
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rowRange(row), &sheets.ValueRange{
		Values: [][]interface{}{recordValues(record, s.loc)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update booking row %d: %w", row, err)
	}
	return nil
}

func (s *BookingsSheet) appendBooking(ctx context.Context, record *models.BookingRecord) error {
	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, cellRange("A", lastColumn), &sheets.ValueRange{
		Values: [][]interface{}{recordValues(record, s.loc)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append booking: %w", err)
	}
	if resp.Updates != nil {
		if row := rowFromRange(resp.Updates.UpdatedRange); row > 0 {
			s.setCachedRow(record.BookingID, row)
		}
	}
	return nil
}

// DeleteBookingRow clears the booking's row. A booking that was never mirrored is not an error.
func (s *BookingsSheet) DeleteBookingRow(ctx context.Context, bookingID int64) error {
	row, err := s.FindBookingRow(ctx, bookingID)
	if errors.Is(err, ErrRowNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.service.Spreadsheets.Values.Clear(s.spreadsheetID, rowRange(row), &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear booking row %d: %w", row, err)
	}

	s.mu.Lock()
	delete(s.rowCache, bookingID)
	s.mu.Unlock()
	return nil
}

func (s *BookingsSheet) cachedRow(id int64) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *BookingsSheet) setCachedRow(id int64, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache[id] = row
}

func recordValues(r *models.BookingRecord, loc *time.Location) []interface{} {
	return []interface{}{
		r.BookingID,
		r.ClassID,
		r.ClassName,
		r.ClassStartsAt.In(loc).Format(timeLayout),
		r.TelegramID,
		r.FullName,
		r.Phone,
		r.CreatedAt.In(loc).Format(timeLayout),
	}
}

func cellID(row []interface{}) int64 {
	if len(row) == 0 {
		return 0
	}
	switch v := row[0].(type) {
	case float64:
		return int64(v)
	case string:
		id, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return id
	}
	return 0
}

// rowFromRange extracts the first row number from an A1 range such as "Bookings!A10:H10".
func rowFromRange(a1 string) int {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	if i := strings.Index(a1, ":"); i >= 0 {
		a1 = a1[:i]
	}
	digits := strings.TrimLeft(a1, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	row, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return row
}
