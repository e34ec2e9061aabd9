package entities

import (
	"fmt"
	"maps"
	"strings"

	domainerrors "vitrine/contexts/merchant-onboarding/draft-approval/domain/errors"
)

// DraftStoreState accumulates proposed store content before approval. It has
// no storage side effects; only the approval flow persists it.
type DraftStoreState struct {
	StoreName  *StoreNameDraft  `json:"store_name,omitempty"`
	Products   []DraftProduct   `json:"products"`
	Appearance *AppearanceDraft `json:"appearance,omitempty"`

	nextDraftSeq int
}

func NewDraftStoreState() *DraftStoreState {
	return &DraftStoreState{Products: []DraftProduct{}}
}

func (d *DraftStoreState) SetStoreName(name string, provenance Provenance) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: store name is empty", domainerrors.ErrInvalidDraft)
	}
	if err := provenance.Validate(); err != nil {
		return err
	}
	d.StoreName = &StoreNameDraft{Value: name, Provenance: provenance}
	return nil
}

// AddProduct appends a product and returns its draft id. A blank DraftID is
// assigned from a per-draft sequence.
func (d *DraftStoreState) AddProduct(product DraftProduct) (string, error) {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return "", fmt.Errorf("%w: name is required", domainerrors.ErrInvalidDraft)
	}
	if product.Price != nil && *product.Price < 0 {
		return "", fmt.Errorf("%w: price must not be negative", domainerrors.ErrInvalidDraft)
	}
	if err := product.Provenance.Validate(); err != nil {
		return "", err
	}

	product.DraftID = strings.TrimSpace(product.DraftID)
	if product.DraftID == "" {
		product.DraftID = d.nextDraftID()
	}
	if d.indexOf(product.DraftID) >= 0 {
		return "", fmt.Errorf("%w: duplicate draft id %s", domainerrors.ErrInvalidDraft, product.DraftID)
	}
	d.Products = append(d.Products, product.clone())
	return product.DraftID, nil
}

func (d *DraftStoreState) EditProduct(draftID string, patch ProductPatch, provenance Provenance) error {
	idx := d.indexOf(draftID)
	if idx < 0 {
		return domainerrors.ErrDraftProductNotFound
	}
	if err := provenance.Validate(); err != nil {
		return err
	}

	product := d.Products[idx].clone()
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return fmt.Errorf("%w: name is required", domainerrors.ErrInvalidDraft)
		}
		product.Name = name
	}
	if patch.NameAR != nil {
		product.NameAR = *patch.NameAR
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.DescriptionAR != nil {
		product.DescriptionAR = *patch.DescriptionAR
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return fmt.Errorf("%w: price must not be negative", domainerrors.ErrInvalidDraft)
		}
		price := *patch.Price
		product.Price = &price
	}
	if patch.Images != nil {
		product.Images = append([]string(nil), patch.Images...)
	}
	product.Provenance = provenance
	d.Products[idx] = product
	return nil
}

func (d *DraftStoreState) RemoveProduct(draftID string) error {
	idx := d.indexOf(draftID)
	if idx < 0 {
		return domainerrors.ErrDraftProductNotFound
	}
	d.Products = append(d.Products[:idx], d.Products[idx+1:]...)
	return nil
}

func (d *DraftStoreState) SetAppearance(appearance AppearanceDraft, provenance Provenance) error {
	if err := provenance.Validate(); err != nil {
		return err
	}
	appearance = appearance.clone()
	appearance.Provenance = provenance
	d.Appearance = &appearance
	return nil
}

// HasContent reports whether there is anything an approval could save.
func (d *DraftStoreState) HasContent() bool {
	if d == nil {
		return false
	}
	return d.StoreName != nil || len(d.Products) > 0 || d.Appearance != nil
}

func (d *DraftStoreState) Clone() *DraftStoreState {
	if d == nil {
		return nil
	}
	out := &DraftStoreState{
		Products:     make([]DraftProduct, 0, len(d.Products)),
		nextDraftSeq: d.nextDraftSeq,
	}
	if d.StoreName != nil {
		name := *d.StoreName
		out.StoreName = &name
	}
	for _, product := range d.Products {
		out.Products = append(out.Products, product.clone())
	}
	if d.Appearance != nil {
		appearance := d.Appearance.clone()
		out.Appearance = &appearance
	}
	return out
}

func (d *DraftStoreState) indexOf(draftID string) int {
	draftID = strings.TrimSpace(draftID)
	for i := range d.Products {
		if d.Products[i].DraftID == draftID {
			return i
		}
	}
	return -1
}

func (d *DraftStoreState) nextDraftID() string {
	for {
		d.nextDraftSeq++
		id := fmt.Sprintf("draft_%d", d.nextDraftSeq)
		if d.indexOf(id) < 0 {
			return id
		}
	}
}

func cloneStrings(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	return maps.Clone(in)
}
