// Package supervisor runs the orchestration state machine that turns a
// user query into executed workflows.
//
// A run walks a fixed sequence of steps: prescribe workflows from the
// query, check document availability, route, and then execute each
// prescribed workflow in order while the router keeps saying PROCEED.
// Every step is a containment boundary. A failing step records what went
// wrong and the run advances; Run always returns a complete Output.
package supervisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/triaged/internal/gate"
	"github.com/fyrsmithlabs/triaged/internal/logging"
	"github.com/fyrsmithlabs/triaged/internal/triage"
	"github.com/fyrsmithlabs/triaged/internal/workflow"
)

// Confidence values derived from the run outcome.
const (
	confidenceDegraded = 0.3
	confidenceProceed  = 0.9
	confidenceCollect  = 0.7
)

// defaultStepTimeout bounds a single step's external call when the
// configuration does not say otherwise.
const defaultStepTimeout = 20 * time.Second

// Classifier prescribes workflows for a query. Implementations must be
// total: they absorb their own failures and signal them via the
// prescription's Fallback flag.
type Classifier interface {
	Classify(ctx context.Context, query string) triage.Prescription
}

// AvailabilityChecker reports which required documents a user has.
type AvailabilityChecker interface {
	Check(ctx context.Context, kinds []workflow.Kind, userID string) gate.Availability
}

var (
	_ Classifier          = (*triage.Classifier)(nil)
	_ AvailabilityChecker = (*gate.Gate)(nil)
)

// Config holds supervisor tuning.
type Config struct {
	// StepTimeout bounds each external call made by a single step.
	StepTimeout time.Duration
}

// Supervisor drives the orchestration state machine.
type Supervisor struct {
	cfg        Config
	classifier Classifier
	gate       AvailabilityChecker
	registry   *workflow.Registry
	logger     *logging.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

// New creates a supervisor. The classifier, gate, and registry are
// required; the logger may be nil.
func New(cfg Config, classifier Classifier, checker AvailabilityChecker, registry *workflow.Registry, logger *logging.Logger) (*Supervisor, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if checker == nil {
		return nil, fmt.Errorf("availability checker is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("workflow registry is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}
	return &Supervisor{
		cfg:        cfg,
		classifier: classifier,
		gate:       checker,
		registry:   registry,
		logger:     logger,
		metrics:    NewMetrics(logger),
		tracer:     otel.Tracer(instrumentationName),
	}, nil
}

// Run executes one full pass of the state machine for the request.
// It never returns an error: failures are contained in the Output.
func (s *Supervisor) Run(ctx context.Context, req workflow.Request) Output {
	rc := newRunContext(req)
	ctx = logging.WithRunID(ctx, rc.runID)
	if req.UserID != "" {
		ctx = logging.WithUserID(ctx, req.UserID)
	}

	ctx, span := s.tracer.Start(ctx, "supervisor.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", rc.runID),
		attribute.Int("query_len", len(req.Query)),
	)

	s.logger.Info(ctx, "run started", zap.Int("query_len", len(req.Query)))

	s.prescribe(ctx, rc)
	s.checkDocuments(ctx, rc)
	s.route(ctx, rc)

	// Each iteration dispatches exactly one not-yet-executed kind, so the
	// loop runs at most len(prescription.Workflows) times.
	for rc.decision == DecisionProceed {
		kind, ok := rc.nextUnexecuted()
		if !ok {
			break
		}
		s.execute(ctx, rc, kind)
		s.route(ctx, rc)
	}

	out := s.buildOutput(rc)
	span.SetAttributes(
		attribute.String("routing_decision", string(out.RoutingDecision)),
		attribute.Float64("confidence", out.ConfidenceScore),
		attribute.Int("workflows_executed", len(out.WorkflowResults)),
	)
	if rc.errMsg != "" {
		span.SetStatus(codes.Error, rc.errMsg)
	}
	s.metrics.RecordRun(ctx, out.RoutingDecision, time.Since(rc.started))
	s.logger.Info(ctx, "run finished",
		zap.String("decision", string(out.RoutingDecision)),
		zap.Float64("confidence", out.ConfidenceScore),
		zap.Int("executed", len(out.WorkflowResults)),
		zap.Duration("elapsed", time.Since(rc.started)))
	return out
}

// prescribe asks the classifier which workflows should handle the query.
// The classifier never errors, but a fallback prescription means the
// upstream call failed, which counts as a run failure for routing.
func (s *Supervisor) prescribe(ctx context.Context, rc *runContext) {
	ctx, span := s.tracer.Start(ctx, "supervisor.prescribe")
	defer span.End()
	defer s.timeStep(ctx, rc, stepPrescribe)()

	cctx, cancel := context.WithTimeout(ctx, s.cfg.StepTimeout)
	defer cancel()

	rc.prescription = s.classifier.Classify(cctx, rc.query)
	if rc.prescription.Fallback {
		rc.fail("workflow classification unavailable")
		span.SetStatus(codes.Error, "classifier fallback")
	}
	span.SetAttributes(
		attribute.Int("workflows", len(rc.prescription.Workflows)),
		attribute.Bool("fallback", rc.prescription.Fallback),
	)

	s.logger.Debug(ctx, "workflows prescribed",
		zap.Any("workflows", rc.prescription.Workflows),
		zap.Float64("confidence", rc.prescription.Confidence),
		zap.Bool("fallback", rc.prescription.Fallback))
}

// checkDocuments resolves document availability for the prescription.
// An empty prescription never consults the store: there is nothing to
// execute, so the run reports not-ready and collects.
func (s *Supervisor) checkDocuments(ctx context.Context, rc *runContext) {
	ctx, span := s.tracer.Start(ctx, "supervisor.check_documents")
	defer span.End()
	defer s.timeStep(ctx, rc, stepCheckDocuments)()

	if len(rc.prescription.Workflows) == 0 {
		av := gate.EmptyAvailability(nil)
		av.Ready = false
		rc.availability = av
		span.SetAttributes(attribute.Bool("ready", false))
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.StepTimeout)
	defer cancel()

	rc.availability = s.gate.Check(cctx, rc.prescription.Workflows, rc.userID)
	span.SetAttributes(
		attribute.Bool("ready", rc.availability.Ready),
		attribute.Int("missing", len(rc.availability.Missing)),
	)
}

// route decides where the run goes next. A recorded failure always
// collects; otherwise readiness decides.
func (s *Supervisor) route(ctx context.Context, rc *runContext) {
	ctx, span := s.tracer.Start(ctx, "supervisor.route")
	defer span.End()
	defer s.timeStep(ctx, rc, stepRoute)()

	switch {
	case rc.errMsg != "":
		rc.decision = DecisionCollect
	case rc.availability.Ready:
		rc.decision = DecisionProceed
	default:
		rc.decision = DecisionCollect
	}
	span.SetAttributes(attribute.String("decision", string(rc.decision)))
}

// execute dispatches one workflow kind. The kind is marked executed no
// matter what happens, so a failing executor is never retried within the
// run; its failure lands in the result slot instead.
func (s *Supervisor) execute(ctx context.Context, rc *runContext, kind workflow.Kind) {
	ctx, span := s.tracer.Start(ctx, "supervisor.execute",
		trace.WithAttributes(attribute.String("workflow", string(kind))))
	defer span.End()
	defer s.timeStep(ctx, rc, "execute_"+string(kind))()
	defer func() { rc.executed[kind] = true }()

	exec, ok := s.registry.Lookup(kind)
	if !ok {
		err := fmt.Errorf("no executor registered for workflow %q", kind)
		s.logger.Warn(ctx, "workflow dispatch failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		rc.results[kind] = workflow.ErrorResult(kind, err)
		s.metrics.RecordWorkflowFailure(ctx, kind)
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.StepTimeout)
	defer cancel()

	res, err := exec.Execute(cctx, workflow.Request{
		Query:   rc.query,
		UserID:  rc.userID,
		Context: rc.reqContext,
	})
	if err != nil {
		s.logger.Warn(ctx, "workflow execution failed",
			zap.String("workflow", string(kind)),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		rc.results[kind] = workflow.ErrorResult(kind, err)
		s.metrics.RecordWorkflowFailure(ctx, kind)
		return
	}
	rc.results[kind] = res
}

// timeStep records the wall-clock duration of a step under its name.
// The entry is written even when the step fails.
func (s *Supervisor) timeStep(ctx context.Context, rc *runContext, name string) func() {
	start := time.Now()
	return func() {
		elapsed := time.Since(start)
		rc.timings[name] = elapsed
		s.metrics.RecordStep(ctx, name, elapsed)
	}
}

func (s *Supervisor) buildOutput(rc *runContext) Output {
	confidence := confidenceCollect
	switch {
	case rc.errMsg != "":
		confidence = confidenceDegraded
	case rc.decision == DecisionProceed:
		confidence = confidenceProceed
	}

	timings := make(map[string]float64, len(rc.timings))
	for name, d := range rc.timings {
		timings[name] = d.Seconds()
	}

	return Output{
		RunID:                rc.runID,
		UserID:               rc.userID,
		RoutingDecision:      rc.decision,
		PrescribedWorkflows:  append([]workflow.Kind{}, rc.prescription.Workflows...),
		ExecutionOrder:       append([]workflow.Kind{}, rc.prescription.Order...),
		ResourceAvailability: rc.availability,
		ConfidenceScore:      confidence,
		Reasoning:            rc.prescription.Reasoning,
		NextSteps:            nextSteps(rc),
		ProcessingTime:       time.Since(rc.started).Seconds(),
		WorkflowResults:      rc.results,
		StepTimings:          timings,
		Error:                rc.errMsg,
	}
}

// nextSteps renders user-facing guidance from the routing outcome.
func nextSteps(rc *runContext) []string {
	if rc.decision == DecisionProceed {
		return []string{"Review the workflow results."}
	}
	steps := []string{}
	if rc.errMsg != "" {
		steps = append(steps, "The request could not be fully processed; please try again.")
	}
	for _, dt := range rc.availability.Missing {
		label := strings.ReplaceAll(string(dt), "_", " ")
		steps = append(steps, fmt.Sprintf("Upload your %s document.", label))
	}
	if len(steps) == 0 {
		steps = append(steps, "Provide the documents required for your request.")
	}
	return steps
}
