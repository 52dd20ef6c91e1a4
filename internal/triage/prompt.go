package triage

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/triaged/internal/workflow"
)

// classifyPromptTemplate asks the model for a strict JSON reply describing
// which workflows a query needs.
const classifyPromptTemplate = `You are a routing classifier for a benefits assistant.

Given a user query, decide which of the following capability workflows should handle it:

%s

Respond with a JSON object and nothing else:
{
  "prescribed_workflows": ["<workflow name>", ...],
  "confidence_score": <number between 0 and 1>,
  "reasoning": "<one sentence explaining the choice>",
  "execution_order": ["<workflow name>", ...]
}

Prescribe every workflow the query needs; a query may need more than one.

User query:
%s`

// workflowDescriptions are the capability summaries shown to the model.
var workflowDescriptions = map[workflow.Kind]string{
	workflow.KindInformationRetrieval: "answers factual questions from the user's uploaded documents (coverage amounts, copays, deductibles, policy details)",
	workflow.KindStrategy:             "produces step-by-step guidance for goals that span multiple decisions (finding in-network providers, planning a claim, comparing options)",
}

// renderPrompt builds the classification prompt for a query.
func renderPrompt(query string) string {
	var b strings.Builder
	for _, kind := range workflow.Canonical() {
		fmt.Fprintf(&b, "- %s: %s\n", kind, workflowDescriptions[kind])
	}
	return fmt.Sprintf(classifyPromptTemplate, strings.TrimRight(b.String(), "\n"), query)
}
