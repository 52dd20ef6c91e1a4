package supervisor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/triaged/internal/logging"
	"github.com/fyrsmithlabs/triaged/internal/workflow"
)

const instrumentationName = "github.com/fyrsmithlabs/triaged/internal/supervisor"

// Metrics holds the supervisor's run and step instruments.
type Metrics struct {
	meter            metric.Meter
	logger           *logging.Logger
	runs             metric.Int64Counter
	runDuration      metric.Float64Histogram
	stepDuration     metric.Float64Histogram
	workflowFailures metric.Int64Counter
}

// NewMetrics creates supervisor metrics. A failed instrument is logged
// and skipped; recording never panics.
func NewMetrics(logger *logging.Logger) *Metrics {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	ctx := context.Background()
	var err error

	m.runs, err = m.meter.Int64Counter(
		"triaged.supervisor.runs_total",
		metric.WithDescription("Completed orchestration runs, labeled by routing decision (PROCEED, COLLECT)"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create runs counter", zap.Error(err))
	}

	m.runDuration, err = m.meter.Float64Histogram(
		"triaged.supervisor.run_duration_seconds",
		metric.WithDescription("End-to-end duration of an orchestration run in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create run duration histogram", zap.Error(err))
	}

	m.stepDuration, err = m.meter.Float64Histogram(
		"triaged.supervisor.step_duration_seconds",
		metric.WithDescription("Duration of a single state machine step in seconds, labeled by step name"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create step duration histogram", zap.Error(err))
	}

	m.workflowFailures, err = m.meter.Int64Counter(
		"triaged.supervisor.workflow_failures_total",
		metric.WithDescription("Workflow executions that produced an error-shaped result, labeled by workflow kind"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create workflow failures counter", zap.Error(err))
	}
}

// RecordRun records one completed run.
func (m *Metrics) RecordRun(ctx context.Context, decision Decision, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("decision", string(decision)))
	if m.runs != nil {
		m.runs.Add(ctx, 1, attrs)
	}
	if m.runDuration != nil {
		m.runDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// RecordStep records the duration of a single step.
func (m *Metrics) RecordStep(ctx context.Context, step string, elapsed time.Duration) {
	if m.stepDuration != nil {
		m.stepDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("step", step)))
	}
}

// RecordWorkflowFailure counts a contained workflow failure.
func (m *Metrics) RecordWorkflowFailure(ctx context.Context, kind workflow.Kind) {
	if m.workflowFailures != nil {
		m.workflowFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("workflow", string(kind))))
	}
}
