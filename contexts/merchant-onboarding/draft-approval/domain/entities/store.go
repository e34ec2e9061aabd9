package entities

import "time"

// OnboardingCompleted is the stores.onboarding_completed value that arms the
// duplicate-approval guard.
const OnboardingCompleted = "completed"

// Organization is the caller's organization-scoped view of their store.
type Organization struct {
	OrganizationID      string
	StoreID             string
	StoreStatus         string
	OnboardingCompleted string
}

func (o Organization) IsOnboardingCompleted() bool {
	return o.OnboardingCompleted == OnboardingCompleted
}

// StoreProduct is the durable row created from an approved draft product.
type StoreProduct struct {
	ProductID     string
	StoreID       string
	Slug          string
	Name          string
	NameAR        string
	Description   string
	DescriptionAR string
	Category      string
	Price         float64
	Images        []string
	AIGenerated   bool
	AIConfidence  Confidence
	CreatedAt     time.Time
}

// ApprovalContext carries where the approval came from. ConversationID ties
// the approval to a tracked workflow when present.
type ApprovalContext struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Locale         string `json:"locale,omitempty"`
}

type SavedSummary struct {
	StoreName  bool `json:"store_name"`
	Products   int  `json:"products"`
	Appearance bool `json:"appearance"`
}

type ApprovalResult struct {
	Saved      SavedSummary `json:"saved"`
	Message    string       `json:"message,omitempty"`
	Note       string       `json:"note,omitempty"`
	ProductIDs []string     `json:"product_ids,omitempty"`
}
