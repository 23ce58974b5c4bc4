package domain

import "time"

// PlanTier enumerates billing plans.
type PlanTier string

const (
	PlanFree    PlanTier = "FREE"
	PlanPro     PlanTier = "PRO"
	PlanPremium PlanTier = "PREMIUM"
)

// User represents an account within the platform. Only the fields the
// generation core depends on are modelled here; authentication state
// lives outside this service.
type User struct {
	ID              string
	Email           string
	Name            string
	PlanTier        PlanTier
	PlanActiveUntil *time.Time
	// PremiumGenerationPrefs is the persistent preference store that only
	// exists for the top tier. Per-job preferences are layered on top.
	PremiumGenerationPrefs *GenerationPrefs
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
