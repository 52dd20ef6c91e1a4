// Package triage classifies a free-text user query into the set of
// capability workflows that should handle it.
//
// The classifier calls an LLM but owns all parsing, validation, and
// fallback logic: it never returns an error to the caller. When the LLM
// call fails or its reply cannot be used, a fixed fallback prescription is
// returned instead.
package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/triaged/internal/llm"
	"github.com/fyrsmithlabs/triaged/internal/logging"
	"github.com/fyrsmithlabs/triaged/internal/workflow"
	"go.uber.org/zap"
)

// FallbackConfidence is the confidence reported when classification fell
// back to the default prescription.
const FallbackConfidence = 0.3

// FallbackReasoning names the fallback so callers and tests can detect it.
const FallbackReasoning = "classification unavailable, fallback to default workflow"

// Prescription is the classifier's output: which workflows should run,
// in canonical execution order.
type Prescription struct {
	// Workflows holds the prescribed kinds in canonical order.
	Workflows []workflow.Kind `json:"workflows"`
	// Confidence is the classifier's confidence in [0, 1].
	Confidence float64 `json:"confidence"`
	// Reasoning is the classifier's free-text explanation.
	Reasoning string `json:"reasoning"`
	// Order duplicates Workflows; it exists so callers that only care
	// about sequencing don't have to know about prescription semantics.
	Order []workflow.Kind `json:"order"`
	// Fallback is true when the fixed fallback prescription was used.
	Fallback bool `json:"fallback"`
}

// classifierReply is the JSON shape the LLM is asked to produce.
type classifierReply struct {
	PrescribedWorkflows []string `json:"prescribed_workflows"`
	ConfidenceScore     float64  `json:"confidence_score"`
	Reasoning           string   `json:"reasoning"`
	ExecutionOrder      []string `json:"execution_order"`
}

// Classifier maps queries to workflow prescriptions.
type Classifier struct {
	client llm.Client
	logger *logging.Logger
}

// NewClassifier creates a classifier backed by the given LLM client.
func NewClassifier(client llm.Client, logger *logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Classifier{client: client, logger: logger}
}

// Classify maps a query to a prescription. It always returns a usable
// prescription: classification failure of any sort (call error, timeout,
// unparseable reply, no valid kinds) is absorbed into the fixed fallback.
func (c *Classifier) Classify(ctx context.Context, query string) Prescription {
	reply, err := c.client.Complete(ctx, renderPrompt(query))
	if err != nil {
		c.logger.Warn(ctx, "classification call failed, using fallback", zap.Error(err))
		return fallbackPrescription()
	}

	parsed, err := parseReply(reply)
	if err != nil {
		c.logger.Warn(ctx, "classification reply unparseable, using fallback",
			zap.Error(err),
			zap.Int("reply_len", len(reply)))
		return fallbackPrescription()
	}

	kinds := c.validKinds(ctx, parsed.PrescribedWorkflows)
	if len(kinds) == 0 {
		c.logger.Warn(ctx, "classification reply contained no known workflows, using fallback")
		return fallbackPrescription()
	}

	// Canonical re-sort makes execution order reproducible regardless of
	// the order the model happened to emit.
	ordered := workflow.SortCanonical(kinds)

	confidence := parsed.ConfidenceScore
	if confidence < 0 || confidence > 1 {
		c.logger.Warn(ctx, "classification confidence out of range, clamping",
			zap.Float64("confidence", confidence))
		confidence = clamp01(confidence)
	}

	return Prescription{
		Workflows:  ordered,
		Confidence: confidence,
		Reasoning:  parsed.Reasoning,
		Order:      ordered,
	}
}

// validKinds parses kind names, dropping unknown ones with a warning.
func (c *Classifier) validKinds(ctx context.Context, names []string) []workflow.Kind {
	kinds := make([]workflow.Kind, 0, len(names))
	for _, name := range names {
		kind, err := workflow.ParseKind(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			c.logger.Warn(ctx, "dropping unknown workflow kind from classification",
				zap.String("kind", name))
			continue
		}
		kinds = append(kinds, kind)
	}
	return kinds
}

// parseReply extracts the classifier JSON from the model output. Models
// sometimes wrap JSON in prose or code fences, so the parser scans for the
// outermost object.
func parseReply(reply string) (*classifierReply, error) {
	raw := extractJSON(reply)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var parsed classifierReply
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("invalid classifier JSON: %w", err)
	}
	if len(parsed.PrescribedWorkflows) == 0 {
		return nil, fmt.Errorf("classifier reply prescribed no workflows")
	}
	return &parsed, nil
}

// extractJSON returns the first top-level JSON object in s, or "".
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func fallbackPrescription() Prescription {
	return Prescription{
		Workflows:  []workflow.Kind{workflow.DefaultKind},
		Confidence: FallbackConfidence,
		Reasoning:  FallbackReasoning,
		Order:      []workflow.Kind{workflow.DefaultKind},
		Fallback:   true,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
