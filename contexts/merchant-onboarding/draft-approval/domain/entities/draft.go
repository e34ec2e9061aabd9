package entities

import (
	"fmt"
	"slices"

	domainerrors "vitrine/contexts/merchant-onboarding/draft-approval/domain/errors"
)

type Source string

const (
	SourceUser        Source = "user"
	SourceAIGenerated Source = "ai_generated"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DefaultConfidence is stored as ai_confidence when a draft product carries none.
const DefaultConfidence = ConfidenceMedium

// Provenance tags who proposed a piece of draft content and how sure they were.
type Provenance struct {
	Source     Source     `json:"source"`
	Confidence Confidence `json:"confidence,omitempty"`
}

func (p Provenance) Validate() error {
	switch p.Source {
	case SourceUser, SourceAIGenerated:
	default:
		return fmt.Errorf("%w: unknown provenance source %q", domainerrors.ErrInvalidDraft, p.Source)
	}
	switch p.Confidence {
	case "", ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		return fmt.Errorf("%w: unknown confidence %q", domainerrors.ErrInvalidDraft, p.Confidence)
	}
	return nil
}

type StoreNameDraft struct {
	Value      string     `json:"value"`
	Provenance Provenance `json:"provenance"`
}

type DraftProduct struct {
	DraftID       string     `json:"draft_id"`
	Name          string     `json:"name"`
	NameAR        string     `json:"name_ar,omitempty"`
	Description   string     `json:"description,omitempty"`
	DescriptionAR string     `json:"description_ar,omitempty"`
	Category      string     `json:"category,omitempty"`
	Price         *float64   `json:"price,omitempty"`
	Images        []string   `json:"images,omitempty"`
	Provenance    Provenance `json:"provenance"`
}

// PriceOrZero is the only numeric fallback applied at approval time.
func (p DraftProduct) PriceOrZero() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

func (p DraftProduct) ConfidenceOrDefault() Confidence {
	if p.Provenance.Confidence == "" {
		return DefaultConfidence
	}
	return p.Provenance.Confidence
}

func (p DraftProduct) clone() DraftProduct {
	out := p
	out.Images = slices.Clone(p.Images)
	if p.Price != nil {
		price := *p.Price
		out.Price = &price
	}
	return out
}

type AppearanceDraft struct {
	Palette    map[string]string `json:"palette,omitempty"`
	Typography map[string]string `json:"typography,omitempty"`
	LogoURL    string            `json:"logo_url,omitempty"`
	Provenance Provenance        `json:"provenance"`
}

func (a AppearanceDraft) clone() AppearanceDraft {
	out := a
	out.Palette = cloneStrings(a.Palette)
	out.Typography = cloneStrings(a.Typography)
	return out
}

// ProductPatch carries the fields an edit replaces; nil fields are left as is.
type ProductPatch struct {
	Name          *string
	NameAR        *string
	Description   *string
	DescriptionAR *string
	Category      *string
	Price         *float64
	Images        []string
}
