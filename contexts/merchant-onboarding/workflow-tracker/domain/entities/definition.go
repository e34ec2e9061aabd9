package entities

type WorkflowType string

const (
	WorkflowTypeOnboarding          WorkflowType = "onboarding"
	WorkflowTypeBulkImageToProducts WorkflowType = "bulk_image_to_products"
)

// Definition is the named, ordered stage list of a workflow type.
type Definition struct {
	Type   WorkflowType
	Stages []string
}

var definitions = map[WorkflowType]Definition{
	WorkflowTypeOnboarding: {
		Type: WorkflowTypeOnboarding,
		Stages: []string{
			"welcome",
			"store_identity",
			"product_images",
			"vision_analysis",
			"product_drafts",
			"appearance",
			"review_and_approve",
		},
	},
	WorkflowTypeBulkImageToProducts: {
		Type: WorkflowTypeBulkImageToProducts,
		Stages: []string{
			"upload_images",
			StageVisionComplete,
			StageDraftsGenerated,
			"review_drafts",
			StagePersistenceComplete,
		},
	},
}

func LookupDefinition(workflowType WorkflowType) (Definition, bool) {
	item, ok := definitions[workflowType]
	if !ok {
		return Definition{}, false
	}
	item.Stages = append([]string(nil), item.Stages...)
	return item, true
}

func (d Definition) TotalStages() int {
	return len(d.Stages)
}

// StageName returns the 1-indexed stage name, or "" when out of range.
func (d Definition) StageName(stage int) string {
	if stage < 1 || stage > len(d.Stages) {
		return ""
	}
	return d.Stages[stage-1]
}
