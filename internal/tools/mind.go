package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
)

const (
	roleAssistant     = "assistant"
	manualStrength    = 0.7
	linkPreviewRunes  = 40
	connectPreviewLen = 50
)

// --- Input types ---

type LogInput struct {
	Content    string   `json:"content" validate:"required"`
	Category   string   `json:"category" validate:"required,oneof=work personal technical creative other"`
	Importance *float64 `json:"importance" validate:"required,min=0,max=1"`
}

type ConnectInput struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type RecallInput struct {
	Query string `json:"query" validate:"required"`
	Limit *int   `json:"limit" validate:"omitempty,min=0"`
}

type SummarizeInput struct {
	Title   string `json:"title" validate:"required"`
	Summary string `json:"summary" validate:"required"`
}

// --- Handlers ---

func (t *MindTools) log(_ context.Context, args json.RawMessage) (string, error) {
	var input LogInput
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}

	now := models.Now()
	pos := t.position()
	role := roleAssistant
	thought := models.Thought{
		ID:             uuid.NewString(),
		Content:        input.Content,
		Role:           &role,
		Category:       input.Category,
		Importance:     *input.Importance,
		PositionX:      pos.X,
		PositionY:      pos.Y,
		PositionZ:      pos.Z,
		CreatedAt:      now,
		LastReferenced: now,
	}
	if err := t.Store.UpsertThought(thought); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✨ Thought logged to The Mind!\n\nID: %s\nCategory: %s\nImportance: %s\nContent: \"%s\"",
		thought.ID, thought.Category, percent(thought.Importance), thought.Content)

	if links := t.Linker.Link(thought); len(links) > 0 {
		lines := make([]string, len(links))
		for i, l := range links {
			lines[i] = "  • " + preview(l.Target.Content, linkPreviewRunes) + "..."
		}
		fmt.Fprintf(&b, "\n\n🔗 Auto-connected to %d existing thought(s):\n%s", len(links), bullets(lines))
	}

	// The thought is already stored; a failed recompute only drops the line.
	clusters, err := t.Clusters.Recompute()
	if err == nil {
		fmt.Fprintf(&b, "\n\n🌐 %d cluster(s) updated", len(clusters))
	} else {
		t.logger().Warn("cluster recompute after log failed", zap.String("thought_id", thought.ID), zap.Error(err))
	}

	return b.String(), nil
}

func (t *MindTools) connect(_ context.Context, args json.RawMessage) (string, error) {
	var input ConnectInput
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}

	from, err := t.resolve(input.From)
	if err != nil {
		return "", err
	}
	to, err := t.resolve(input.To)
	if err != nil {
		return "", err
	}

	conn := models.Connection{
		ID:          uuid.NewString(),
		FromThought: from.ID,
		ToThought:   to.ID,
		Strength:    manualStrength,
		Reason:      input.Reason,
		CreatedAt:   models.Now(),
	}
	if err := t.Store.UpsertConnection(conn); err != nil {
		return "", err
	}

	return fmt.Sprintf("🔗 Connection created in The Mind!\n\nFrom: \"%s\"\nTo: \"%s\"\nReason: %s",
		preview(from.Content, connectPreviewLen), preview(to.Content, connectPreviewLen), input.Reason), nil
}

// resolve returns the top search hit for query.
func (t *MindTools) resolve(query string) (models.Thought, error) {
	hits, err := t.Store.Search(query)
	if err != nil {
		return models.Thought{}, err
	}
	if len(hits) == 0 {
		return models.Thought{}, fmt.Errorf("Could not find thought: %s", query)
	}
	return hits[0], nil
}

func (t *MindTools) recall(_ context.Context, args json.RawMessage) (string, error) {
	var input RecallInput
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	limit := DefaultRecallLimit
	if input.Limit != nil {
		limit = *input.Limit
	}

	thoughts, err := t.Store.Search(input.Query)
	if err != nil {
		return "", err
	}
	if len(thoughts) == 0 {
		return fmt.Sprintf("No thoughts found matching: \"%s\"", input.Query), nil
	}
	if len(thoughts) > limit {
		thoughts = thoughts[:limit]
	}

	lines := make([]string, len(thoughts))
	for i, th := range thoughts {
		lines[i] = fmt.Sprintf("• [%s] %s (importance: %s)", th.Category, th.Content, percent(th.Importance))
	}
	return fmt.Sprintf("🧠 Found %d thought(s) matching \"%s\":\n\n%s", len(lines), input.Query, bullets(lines)), nil
}

func (t *MindTools) summarize(_ context.Context, args json.RawMessage) (string, error) {
	var input SummarizeInput
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}

	// A summary is recorded at one instant, so it starts and ends together.
	now := models.Now()
	summary := input.Summary
	ended := now
	sess := models.Session{
		ID:        uuid.NewString(),
		Title:     input.Title,
		Summary:   &summary,
		StartedAt: now,
		EndedAt:   &ended,
	}
	if err := t.Store.UpsertSession(sess); err != nil {
		return "", err
	}

	return fmt.Sprintf("📝 Session summarized and logged to The Mind!\n\nTitle: %s\nSummary: %s",
		input.Title, input.Summary), nil
}
