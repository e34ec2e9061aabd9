package entities

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestAdvanceIsMonotonicAndCapsAtTotalStages(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	state := NewWorkflowState("wf_1", "conv_1", "merchant_1", WorkflowTypeOnboarding, 3, nil, start)

	var stages []int
	var firstCompletedAt time.Time
	for i := 1; i <= 5; i++ {
		completedNow := state.Advance(map[string]any{"step": i}, start.Add(time.Duration(i)*time.Minute))
		stages = append(stages, state.CurrentStage)

		if state.CurrentStage == state.TotalStages {
			if state.Status != WorkflowStatusCompleted {
				t.Fatalf("expected completed at final stage, got %s", state.Status)
			}
			if state.CompletedAt == nil {
				t.Fatal("expected completed_at to be set")
			}
			if firstCompletedAt.IsZero() {
				firstCompletedAt = *state.CompletedAt
				if !completedNow {
					t.Fatal("expected first final advance to report the transition")
				}
			} else {
				if completedNow {
					t.Fatal("expected repeated final advance not to report a transition")
				}
				if !state.CompletedAt.Equal(firstCompletedAt) {
					t.Fatalf("completed_at moved from %s to %s", firstCompletedAt, state.CompletedAt)
				}
			}
		} else if state.Status != WorkflowStatusInProgress {
			t.Fatalf("expected in_progress before final stage, got %s", state.Status)
		}
	}

	expected := []int{2, 3, 3, 3, 3}
	if !reflect.DeepEqual(stages, expected) {
		t.Fatalf("unexpected stage sequence %v", stages)
	}
}

func TestAdvanceAccumulatesStageData(t *testing.T) {
	state := NewWorkflowState("wf_2", "conv_2", "merchant_2", WorkflowTypeOnboarding, 7, map[string]any{"a": 1}, time.Now())
	state.Advance(map[string]any{"b": 2}, time.Now())
	state.Advance(map[string]any{"c": 3}, time.Now())

	expected := map[string]any{"a": 1, "b": 2, "c": 3}
	if !reflect.DeepEqual(map[string]any(state.StageData), expected) {
		t.Fatalf("unexpected stage data %#v", state.StageData)
	}
}

func TestAdvanceLaterKeysWinOnConflict(t *testing.T) {
	state := NewWorkflowState("wf_3", "conv_3", "merchant_3", WorkflowTypeOnboarding, 7, map[string]any{"stage_name": "welcome", "keep": true}, time.Now())
	state.Advance(map[string]any{"stage_name": "store_identity"}, time.Now())

	if state.StageData["stage_name"] != "store_identity" {
		t.Fatalf("expected later stage_name to win, got %v", state.StageData["stage_name"])
	}
	if state.StageData["keep"] != true {
		t.Fatal("expected earlier key to survive the merge")
	}
}

func TestSingleStageWorkflowCompletesOnFirstAdvance(t *testing.T) {
	state := NewWorkflowState("wf_4", "conv_4", "merchant_4", WorkflowTypeBulkImageToProducts, 1, nil, time.Now())
	if !state.Advance(nil, time.Now()) {
		t.Fatal("expected completion transition")
	}
	if state.CurrentStage != 1 || !state.IsComplete() {
		t.Fatalf("unexpected state stage=%d status=%s", state.CurrentStage, state.Status)
	}
}

func TestProgressOf(t *testing.T) {
	progress := ProgressOf(WorkflowState{CurrentStage: 3, TotalStages: 7, Status: WorkflowStatusInProgress})
	if progress.Percentage != 43 || progress.IsComplete {
		t.Fatalf("unexpected progress %+v", progress)
	}

	progress = ProgressOf(WorkflowState{CurrentStage: 7, TotalStages: 7, Status: WorkflowStatusCompleted})
	if progress.Percentage != 100 || !progress.IsComplete {
		t.Fatalf("unexpected progress %+v", progress)
	}

	progress = ProgressOf(WorkflowState{CurrentStage: 1})
	if progress.Percentage != 0 {
		t.Fatalf("expected zero percentage without total stages, got %d", progress.Percentage)
	}
}

func TestTypedStagePayloadsSurviveJSONRoundTrip(t *testing.T) {
	data := StageData{"custom_flag": "kept"}
	data = data.Merge(StageUpdate(VisionComplete{ImageGroups: []ImageGroup{
		{GroupID: "g1", Label: "mugs", ImageURLs: []string{"https://cdn.example/1.jpg"}},
	}}, nil))
	data = data.Merge(StageUpdate(DraftsGenerated{DraftIDs: []string{"d1", "d2"}}, nil))
	data = data.Merge(StageUpdate(PersistenceComplete{ProductIDs: []string{"p1"}}, map[string]any{"note": "bulk"}))

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal stage data: %v", err)
	}
	var decoded StageData
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal stage data: %v", err)
	}

	vision, ok := decoded.VisionComplete()
	if !ok || len(vision.ImageGroups) != 1 || vision.ImageGroups[0].GroupID != "g1" {
		t.Fatalf("unexpected vision payload %+v ok=%v", vision, ok)
	}
	drafts, ok := decoded.DraftsGenerated()
	if !ok || !reflect.DeepEqual(drafts.DraftIDs, []string{"d1", "d2"}) {
		t.Fatalf("unexpected drafts payload %+v ok=%v", drafts, ok)
	}
	persisted, ok := decoded.PersistenceComplete()
	if !ok || !reflect.DeepEqual(persisted.ProductIDs, []string{"p1"}) {
		t.Fatalf("unexpected persistence payload %+v ok=%v", persisted, ok)
	}
	if decoded[StageDataKeyStageName] != StagePersistenceComplete {
		t.Fatalf("expected latest stage_name, got %v", decoded[StageDataKeyStageName])
	}
	if decoded["custom_flag"] != "kept" || decoded["note"] != "bulk" {
		t.Fatalf("expected pass-through keys to survive, got %#v", decoded)
	}
}

func TestLookupDefinition(t *testing.T) {
	onboarding, ok := LookupDefinition(WorkflowTypeOnboarding)
	if !ok || onboarding.TotalStages() != 7 {
		t.Fatalf("expected 7-stage onboarding definition, got %d", onboarding.TotalStages())
	}
	if onboarding.StageName(1) != "welcome" || onboarding.StageName(8) != "" {
		t.Fatal("unexpected stage name lookup")
	}
	if _, ok := LookupDefinition("unknown"); ok {
		t.Fatal("expected unknown workflow type to be rejected")
	}
}
