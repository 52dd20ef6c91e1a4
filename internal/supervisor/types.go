package supervisor

import (
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/triaged/internal/gate"
	"github.com/fyrsmithlabs/triaged/internal/triage"
	"github.com/fyrsmithlabs/triaged/internal/workflow"
)

// Decision is the routing outcome of a run.
type Decision string

const (
	// DecisionProceed routes the run into workflow execution.
	DecisionProceed Decision = "PROCEED"
	// DecisionCollect stops the run and asks the user for documents.
	DecisionCollect Decision = "COLLECT"
)

// Step names used for timings and metrics. Workflow execution steps are
// named "execute_<kind>".
const (
	stepPrescribe      = "prescribe"
	stepCheckDocuments = "check_documents"
	stepRoute          = "route_decision"
)

// Output is the result record returned for every run. Run never fails:
// whatever went wrong along the way is reflected in the fields below
// rather than in an error return.
type Output struct {
	RunID                string                            `json:"run_id"`
	UserID               string                            `json:"user_id"`
	RoutingDecision      Decision                          `json:"routing_decision"`
	PrescribedWorkflows  []workflow.Kind                   `json:"prescribed_workflows"`
	ExecutionOrder       []workflow.Kind                   `json:"execution_order"`
	ResourceAvailability gate.Availability                 `json:"resource_availability"`
	ConfidenceScore      float64                           `json:"confidence_score"`
	Reasoning            string                            `json:"reasoning"`
	NextSteps            []string                          `json:"next_steps"`
	ProcessingTime       float64                           `json:"processing_time"`
	WorkflowResults      map[workflow.Kind]workflow.Result `json:"workflow_results"`
	StepTimings          map[string]float64                `json:"step_timings"`
	Error                string                            `json:"error,omitempty"`
}

// runContext is the mutable state threaded through one run of the state
// machine. It lives for exactly one Run call and is never shared.
type runContext struct {
	runID        string
	query        string
	userID       string
	reqContext   map[string]string
	prescription triage.Prescription
	availability gate.Availability
	decision     Decision
	executed     map[workflow.Kind]bool
	results      map[workflow.Kind]workflow.Result
	timings      map[string]time.Duration
	errMsg       string
	started      time.Time
}

func newRunContext(req workflow.Request) *runContext {
	return &runContext{
		runID:      uuid.NewString(),
		query:      req.Query,
		userID:     req.UserID,
		reqContext: req.Context,
		executed:   make(map[workflow.Kind]bool),
		results:    make(map[workflow.Kind]workflow.Result),
		timings:    make(map[string]time.Duration),
		started:    time.Now(),
	}
}

// fail records a step failure. Last write wins: a later failure replaces
// an earlier one, and any recorded failure forces the router to COLLECT.
func (rc *runContext) fail(msg string) {
	rc.errMsg = msg
}

// nextUnexecuted returns the first prescribed kind that has not been
// dispatched yet, in prescription order.
func (rc *runContext) nextUnexecuted() (workflow.Kind, bool) {
	for _, k := range rc.prescription.Workflows {
		if !rc.executed[k] {
			return k, true
		}
	}
	return "", false
}
