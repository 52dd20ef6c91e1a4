// Package gate decides whether the documents a set of prescribed workflows
// requires are available for a user.
//
// The gate is read-only and fail-safe: a store error never aborts a run, it
// degrades to an empty availability so routing trends toward collecting
// documents instead of proceeding on unknown state.
package gate

import (
	"context"

	"github.com/fyrsmithlabs/triaged/internal/documents"
	"github.com/fyrsmithlabs/triaged/internal/logging"
	"github.com/fyrsmithlabs/triaged/internal/workflow"
	"go.uber.org/zap"
)

// requirements maps each workflow kind to the document types it needs.
// Immutable process-wide configuration; read-only after startup.
var requirements = map[workflow.Kind][]documents.Type{
	workflow.KindInformationRetrieval: {
		documents.TypeBenefitsSummary,
		documents.TypeInsuranceCard,
	},
	workflow.KindStrategy: {
		documents.TypeBenefitsSummary,
		documents.TypeProviderDirectory,
	},
}

// RequiredTypes returns the union of document types required by kinds,
// deduplicated, in stable (canonical-kind, then declaration) order.
func RequiredTypes(kinds []workflow.Kind) []documents.Type {
	seen := make(map[documents.Type]bool)
	var out []documents.Type
	for _, k := range workflow.SortCanonical(kinds) {
		for _, dt := range requirements[k] {
			if !seen[dt] {
				seen[dt] = true
				out = append(out, dt)
			}
		}
	}
	return out
}

// Availability is the ready/not-ready partition of required documents.
type Availability struct {
	Ready     bool                    `json:"is_ready"`
	Available []documents.Type        `json:"available"`
	Missing   []documents.Type        `json:"missing"`
	Status    map[documents.Type]bool `json:"status"`
}

// EmptyAvailability returns the not-ready result used when nothing is
// prescribed or when the store cannot be consulted.
func EmptyAvailability(required []documents.Type) Availability {
	av := Availability{
		Ready:     len(required) == 0,
		Available: []documents.Type{},
		Missing:   append([]documents.Type{}, required...),
		Status:    make(map[documents.Type]bool, len(required)),
	}
	for _, dt := range required {
		av.Status[dt] = false
	}
	return av
}

// Gate checks document availability against the store.
type Gate struct {
	store  documents.Store
	logger *logging.Logger
}

// New creates a gate backed by the given store.
func New(store documents.Store, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gate{store: store, logger: logger}
}

// Check resolves the required document types for the prescribed kinds and
// partitions them into available and missing for the user.
//
// A store failure is absorbed: the gate logs it and falls back to the
// conservative substitute (nothing available), so Ready can only be true
// when the store positively confirmed every required document.
func (g *Gate) Check(ctx context.Context, kinds []workflow.Kind, userID string) Availability {
	required := RequiredTypes(kinds)
	if len(required) == 0 {
		return EmptyAvailability(required)
	}

	recs, err := g.store.ListByUser(ctx, userID)
	if err != nil {
		g.logger.Warn(ctx, "document store lookup failed, degrading to not-ready",
			zap.Error(err),
			zap.Int("required", len(required)))
		av := EmptyAvailability(required)
		av.Ready = false
		return av
	}

	usable := make(map[documents.Type]bool)
	for _, rec := range recs {
		if rec.Usable() {
			usable[rec.Type] = true
		}
	}

	av := Availability{
		Available: []documents.Type{},
		Missing:   []documents.Type{},
		Status:    make(map[documents.Type]bool, len(required)),
	}
	for _, dt := range required {
		if usable[dt] {
			av.Available = append(av.Available, dt)
			av.Status[dt] = true
		} else {
			av.Missing = append(av.Missing, dt)
			av.Status[dt] = false
		}
	}
	av.Ready = len(av.Missing) == 0

	g.logger.Debug(ctx, "availability check complete",
		zap.Bool("ready", av.Ready),
		zap.Int("available", len(av.Available)),
		zap.Int("missing", len(av.Missing)))

	return av
}
