package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateWorkflowRequest struct {
	ConversationID string         `json:"conversation_id"`
	WorkflowType   string         `json:"workflow_type"`
	TotalStages    int            `json:"total_stages,omitempty"`
	InitialData    map[string]any `json:"initial_data,omitempty"`
}

type AdvanceWorkflowRequest struct {
	StageUpdate map[string]any `json:"stage_update"`
}

type UpdateWorkflowDataRequest struct {
	Patch map[string]any `json:"patch"`
}

type ProgressData struct {
	CurrentStage int  `json:"current_stage"`
	TotalStages  int  `json:"total_stages"`
	Percentage   int  `json:"percentage"`
	IsComplete   bool `json:"is_complete"`
}

type WorkflowData struct {
	WorkflowID     string         `json:"workflow_id"`
	ConversationID string         `json:"conversation_id"`
	MerchantID     string         `json:"merchant_id"`
	WorkflowType   string         `json:"workflow_type"`
	CurrentStage   int            `json:"current_stage"`
	TotalStages    int            `json:"total_stages"`
	StageName      string         `json:"stage_name,omitempty"`
	StageData      map[string]any `json:"stage_data"`
	Status         string         `json:"status"`
	CompletedAt    string         `json:"completed_at,omitempty"`
	Progress       ProgressData   `json:"progress"`
}

type WorkflowResponse struct {
	Status string       `json:"status"`
	Data   WorkflowData `json:"data"`
}

type WorkflowMutationResponse struct {
	Status string `json:"status"`
	Data   struct {
		WorkflowID string `json:"workflow_id"`
		Updated    bool   `json:"updated"`
	} `json:"data"`
}
