package formulate

import (
	"strings"

	"optimind/internal/jsonutil"
	"optimind/internal/knowledge"
	"optimind/internal/types"
)

// promptVersion participates in the cache key so that prompt changes
// invalidate cached formulations.
const promptVersion = "v3"

const systemPrompt = `You are an optimization modeling assistant. Translate the business
problem into a mathematical optimization model and respond with a single JSON
object, no prose, in exactly this shape:

{
  "variables": [
    {"name": "x1", "kind": "continuous|integer|binary",
     "lower_bound": 0, "upper_bound": 100, "description": "..."}
  ],
  "constraints": [
    {"expression": "2*x1 + 3*x2 <= 120", "description": "..."}
  ],
  "objective": {"sense": "maximize|minimize", "expression": "40*x1 + 30*x2",
                "description": "..."},
  "model_type": "linear|mixed-integer-linear|quadratic|other"
}

Rules:
- Expressions use only numbers, declared variable names, + - * / ** and
  parentheses. No function calls, no comparison chains.
- Each constraint contains exactly one relational operator: <=, >= or =.
- Every declared variable must appear in at least one constraint or in the
  objective.
- Bounds must be finite with lower_bound <= upper_bound.
- Do not invent data; model only what the problem states.`

// buildPrompt assembles the instruction block: structural requirements, then
// retrieved exemplars as worked examples, then feedback from failed attempts.
func buildPrompt(exemplars []knowledge.Exemplar, feedback []types.ValidationReport) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)

	if len(exemplars) > 0 {
		sb.WriteString("\n\nWorked examples of similar problems:\n")
		for _, ex := range exemplars {
			spec, err := jsonutil.MarshalNoEscape(ex.Spec)
			if err != nil {
				continue
			}
			sb.WriteString("\nProblem: ")
			sb.WriteString(ex.Problem)
			sb.WriteString("\nModel: ")
			sb.Write(spec)
			sb.WriteString("\n")
		}
	}

	if len(feedback) > 0 {
		sb.WriteString("\n\nYour previous attempt was rejected. Fix every issue below and return a corrected model:\n")
		last := feedback[len(feedback)-1]
		for _, viol := range last.Violations {
			sb.WriteString("- ")
			sb.WriteString(string(viol.Category))
			sb.WriteString(": ")
			sb.WriteString(viol.Message)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
