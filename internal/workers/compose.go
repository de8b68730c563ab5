package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/informe-labs/informe/internal/prompts"
)

// composePrompt builds a worker prompt from the stage's tunable
// instructions, its immutable response specification, and a payload
// section serialized as JSON. Sections are separated by blank lines so
// overridden instructions slot in without touching the wire contract.
func composePrompt(
	ctx context.Context,
	ps prompts.System,
	stage prompts.Stage,
	sections map[string]any,
) (string, error) {
	instructions, err := ps.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := ps.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)

	payload, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize %s payload: %w", stage, err)
	}

	sb.WriteString("\n\nInput:\n\n")
	sb.Write(payload)

	return sb.String(), nil
}
