package models

import "time"

// Onboarding steps. A user with no stored step is either unknown or complete.
const (
	StepAwaitingName         = "awaiting_name"
	StepAwaitingPhone        = "awaiting_phone"
	StepAwaitingOfferConsent = "awaiting_offer_consent"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	DefaultStateTTL = 24 * time.Hour

	// ClassTimeLayout is the ISO form used for class datetimes on the wire.
	ClassTimeLayout = "2006-01-02T15:04:05"
)
