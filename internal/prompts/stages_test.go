package prompts_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/informe-labs/informe/internal/prompts"
)

func TestParseStage(t *testing.T) {
	for _, stage := range prompts.Stages() {
		parsed, err := prompts.ParseStage(string(stage))
		if err != nil {
			t.Errorf("rejected valid stage %s: %v", stage, err)
		}
		if parsed != stage {
			t.Errorf("parsed %s, want %s", parsed, stage)
		}
	}

	if _, err := prompts.ParseStage("assemble"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("err = %v, want ErrInvalidStage", err)
	}
}

func TestStageUnmarshalJSON(t *testing.T) {
	var stage prompts.Stage
	if err := json.Unmarshal([]byte(`"review"`), &stage); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if stage != prompts.StageReview {
		t.Errorf("stage = %s", stage)
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &stage); err == nil {
		t.Error("accepted invalid stage")
	}
}

func TestDefaultInstructionsExistForAllStages(t *testing.T) {
	for _, stage := range prompts.Stages() {
		text, err := prompts.Instructions(stage)
		if err != nil {
			t.Errorf("instructions for %s: %v", stage, err)
		}
		if text == "" {
			t.Errorf("empty instructions for %s", stage)
		}
	}
}

func TestSpecsDescribeResponseShape(t *testing.T) {
	tests := []struct {
		stage    prompts.Stage
		fragment string
	}{
		{prompts.StageSQLGen, "sql_query"},
		{prompts.StageVisualize, "chart_type"},
		{prompts.StageReview, "approved"},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			spec, err := prompts.Spec(tt.stage)
			if err != nil {
				t.Fatalf("spec failed: %v", err)
			}
			if !strings.Contains(spec, tt.fragment) {
				t.Errorf("spec missing %q", tt.fragment)
			}
		})
	}
}
