package models

// UserState is the onboarding progress of a single chat user.
// TempData carries answers collected by earlier steps; after a round trip
// through redis its values are whatever encoding/json decoded them into.
type UserState struct {
	UserID      int64                  `json:"user_id"`
	CurrentStep string                 `json:"current_step"`
	TempData    map[string]interface{} `json:"temp_data,omitempty"`
}

// GetString returns the string stored under key, or "".
func (s *UserState) GetString(key string) string {
	str, _ := s.TempData[key].(string)
	return str
}
