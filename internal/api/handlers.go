package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"yogastudio/internal/database"
	"yogastudio/internal/models"

	"github.com/rs/zerolog"
)

type classSummary struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Datetime        string  `json:"datetime"`
	Price           float64 `json:"price"`
	MaxParticipants int     `json:"max_participants"`
}

func newClassSummary(c *models.Class, loc *time.Location) classSummary {
	return classSummary{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Datetime:        models.FormatClassTime(c.StartsAt, loc),
		Price:           c.Price,
		MaxParticipants: c.MaxParticipants,
	}
}

type subscriptionTypeView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	VisitsAllowed int     `json:"visits_allowed"`
	Price         float64 `json:"price"`
}

type userSubscriptionView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	VisitsRemaining int    `json:"visits_remaining"`
}

type activeSubscriptionView struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	ClassName       string  `json:"class_name"`
	ClassID         int64   `json:"class_id"`
	VisitsAllowed   int     `json:"visits_allowed"`
	VisitsRemaining int     `json:"visits_remaining"`
	Price           float64 `json:"price"`
	PurchaseDate    string  `json:"purchase_date"`
}

type userBookingView struct {
	ID            int64   `json:"id"`
	ClassID       int64   `json:"class_id"`
	ClassName     string  `json:"class_name"`
	Description   string  `json:"description"`
	ClassDatetime string  `json:"class_datetime"`
	Price         float64 `json:"price"`
	CanCancel     bool    `json:"can_cancel"`
}

// formatTime renders stored UTC times as studio wall-clock time.
func (s *HTTPServer) formatTime(t time.Time) string {
	return models.FormatClassTime(t, s.cfg.Location)
}

// parseClassTime accepts RFC3339 or the zone-less ISO form, which is read in
// the studio zone.
func (s *HTTPServer) parseClassTime(raw string) (time.Time, error) {
	t, err := models.ParseClassTime(raw, s.cfg.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime %q: %w", raw, database.ErrValidation)
	}
	return t, nil
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func queryUserID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("user_id")), 10, 64)
	return id, err == nil
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// handleListClasses returns the whole catalog. user_id is accepted for
// client compatibility and does not filter anything.
func (s *HTTPServer) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.svc.Classes.ListClasses(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]classSummary, 0, len(classes))
	for _, c := range classes {
		out = append(out, newClassSummary(c, s.cfg.Location))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleGetClass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Class not found")
		return
	}
	class, err := s.svc.Classes.GetClass(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newClassSummary(class, s.cfg.Location))
}

func (s *HTTPServer) handleSubscriptionTypes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "No subscription types found for this class")
		return
	}
	types, err := s.svc.Subscriptions.TypesForClass(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]subscriptionTypeView, 0, len(types))
	for _, st := range types {
		out = append(out, subscriptionTypeView{ID: st.ID, Name: st.Name, VisitsAllowed: st.VisitsAllowed, Price: st.Price})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID  *int64 `json:"user_id"`
		ClassID *int64 `json:"class_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if body.UserID == nil || body.ClassID == nil {
		writeError(w, http.StatusBadRequest, "Missing user_id or class_id in request")
		return
	}

	bookingID, err := s.svc.Bookings.CreateBooking(r.Context(), *body.UserID, *body.ClassID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "booking_id": bookingID})
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BookingID *int64 `json:"booking_id"`
		UserID    *int64 `json:"user_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if body.BookingID == nil || body.UserID == nil {
		writeError(w, http.StatusBadRequest, "Missing booking_id or user_id in request")
		return
	}

	if err := s.svc.Bookings.CancelBooking(r.Context(), *body.UserID, *body.BookingID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleUserSubscriptions takes the internal user id, unlike the other user routes.
func (s *HTTPServer) handleUserSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	subs, err := s.svc.Subscriptions.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]userSubscriptionView, 0, len(subs))
	for _, sub := range subs {
		out = append(out, userSubscriptionView{ID: sub.ID, Name: sub.Name, VisitsRemaining: sub.VisitsRemaining})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleActiveSubscriptions(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := queryUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	subs, err := s.svc.Subscriptions.ActiveSubscriptions(r.Context(), telegramID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]activeSubscriptionView, 0, len(subs))
	for _, sub := range subs {
		out = append(out, activeSubscriptionView{
			ID:              sub.ID,
			Name:            sub.Name,
			ClassName:       sub.ClassName,
			ClassID:         sub.ClassID,
			VisitsAllowed:   sub.VisitsAllowed,
			VisitsRemaining: sub.VisitsRemaining,
			Price:           sub.Price,
			PurchaseDate:    s.formatTime(sub.PurchaseDate),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID             *int64 `json:"user_id"`
		SubscriptionTypeID *int64 `json:"subscription_type_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if body.UserID == nil || body.SubscriptionTypeID == nil {
		writeError(w, http.StatusBadRequest, "Missing user_id or subscription_type_id in request")
		return
	}

	subID, err := s.svc.Subscriptions.Purchase(r.Context(), *body.UserID, *body.SubscriptionTypeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "subscription_id": subID})
}

func (s *HTTPServer) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := queryUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	bookings, err := s.svc.Bookings.ListUserBookings(r.Context(), telegramID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	now := s.now()
	out := make([]userBookingView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, userBookingView{
			ID:            b.ID,
			ClassID:       b.ClassID,
			ClassName:     b.ClassName,
			Description:   b.Description,
			ClassDatetime: s.formatTime(b.ClassStartsAt),
			Price:         b.Price,
			CanCancel:     b.CanCancel(now),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name            *string  `json:"name"`
		Description     string   `json:"description"`
		Datetime        *string  `json:"datetime"`
		MaxParticipants *int     `json:"max_participants"`
		Price           *float64 `json:"price"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if body.Name == nil || body.Datetime == nil || body.MaxParticipants == nil || body.Price == nil {
		writeError(w, http.StatusBadRequest, "Missing name, datetime, max_participants or price in request")
		return
	}

	startsAt, err := s.parseClassTime(*body.Datetime)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	classID, err := s.svc.Classes.CreateClass(r.Context(), &models.Class{
		Name:            *body.Name,
		Description:     body.Description,
		StartsAt:        startsAt,
		MaxParticipants: *body.MaxParticipants,
		Price:           *body.Price,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "class_id": classID})
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if err := s.db.PingContext(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) servePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(s.cfg.PagesDir, name, "index.html")
		http.ServeFile(w, r, path)
	}
}
