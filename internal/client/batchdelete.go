package client

import (
	"context"
	"fmt"
	"strings"
)

// FlowState is the phase of the two-step batch-delete workflow.
type FlowState int

const (
	StateIdle FlowState = iota
	StatePreviewing
	StateDeleting
)

func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreviewing:
		return "previewing"
	case StateDeleting:
		return "deleting"
	default:
		return fmt.Sprintf("FlowState(%d)", int(s))
	}
}

// BatchDeleteFlow is the preview-then-commit workflow for pattern deletes.
// The pattern is compiled exactly once, at preview time; commit reuses the
// stored compiled form so the two calls can never diverge. Changing the
// pattern requires going back to idle and previewing again.
type BatchDeleteFlow struct {
	client *Client

	state    FlowState
	compiled string
	preview  *BatchDeleteResult
}

func NewBatchDeleteFlow(c *Client) *BatchDeleteFlow {
	return &BatchDeleteFlow{client: c, state: StateIdle}
}

func (f *BatchDeleteFlow) State() FlowState { return f.state }

// Preview compiles the pattern and runs a dry run. Only valid from idle.
func (f *BatchDeleteFlow) Preview(ctx context.Context, pattern string, isRegex bool) (*BatchDeleteResult, error) {
	if f.state != StateIdle {
		return nil, fmt.Errorf("preview not allowed in state %s", f.state)
	}
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("pattern must not be empty")
	}

	compiled := CompilePattern(pattern, isRegex)
	res, err := f.client.BatchDelete(ctx, compiled, true)
	if err != nil {
		return nil, err
	}
	f.compiled = compiled
	f.preview = res
	f.state = StatePreviewing
	return res, nil
}

// Back discards the preview and returns to idle. A changed pattern needs a
// fresh preview.
func (f *BatchDeleteFlow) Back() {
	f.state = StateIdle
	f.compiled = ""
	f.preview = nil
}

// CanConfirm reports whether a commit is offered. Zero matches means there
// is nothing to delete, so no commit control.
func (f *BatchDeleteFlow) CanConfirm() bool {
	return f.state == StatePreviewing && f.preview != nil && f.preview.MatchedCount > 0
}

// PreviewResult returns the stored dry-run result, nil outside previewing.
func (f *BatchDeleteFlow) PreviewResult() *BatchDeleteResult {
	return f.preview
}

// ConfirmDelete commits the previewed pattern. Matching is re-evaluated
// server-side, so the deleted count may differ from the preview if the data
// changed in between. On failure the flow stays in previewing so the user
// can retry; on success it closes back to idle.
func (f *BatchDeleteFlow) ConfirmDelete(ctx context.Context) (*BatchDeleteResult, error) {
	if !f.CanConfirm() {
		return nil, fmt.Errorf("confirm not allowed in state %s", f.state)
	}

	f.state = StateDeleting
	res, err := f.client.BatchDelete(ctx, f.compiled, false)
	if err != nil {
		f.state = StatePreviewing
		return nil, err
	}
	f.Back()
	return res, nil
}
