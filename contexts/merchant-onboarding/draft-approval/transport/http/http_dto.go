package http

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ApproveDraftRequest struct {
	DraftState DraftStateDTO      `json:"draftState"`
	Context    ApprovalContextDTO `json:"context"`
}

type DraftStateDTO struct {
	StoreName  *StoreNameDTO     `json:"storeName,omitempty"`
	Products   []DraftProductDTO `json:"products,omitempty"`
	Appearance *AppearanceDTO    `json:"appearance,omitempty"`
}

type StoreNameDTO struct {
	Value      string `json:"value"`
	Source     string `json:"source,omitempty"`
	Confidence string `json:"confidence,omitempty"`
}

type DraftProductDTO struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	NameAR        string   `json:"nameAr,omitempty"`
	Description   string   `json:"description,omitempty"`
	DescriptionAR string   `json:"descriptionAr,omitempty"`
	Category      string   `json:"category,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Images        []string `json:"images,omitempty"`
	Source        string   `json:"source,omitempty"`
	Confidence    string   `json:"confidence,omitempty"`
}

type AppearanceDTO struct {
	Palette    map[string]string `json:"palette,omitempty"`
	Typography map[string]string `json:"typography,omitempty"`
	LogoURL    string            `json:"logoUrl,omitempty"`
	Source     string            `json:"source,omitempty"`
	Confidence string            `json:"confidence,omitempty"`
}

type ApprovalContextDTO struct {
	ConversationID string `json:"conversationId,omitempty"`
	Locale         string `json:"locale,omitempty"`
}

type SavedDTO struct {
	StoreName  bool `json:"store_name"`
	Products   int  `json:"products"`
	Appearance bool `json:"appearance"`
}

type ApproveDraftResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Saved   SavedDTO `json:"saved"`
	Note    string   `json:"note,omitempty"`
}
