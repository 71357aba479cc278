// Package solver orchestrates one analysis: build the prompt, call the
// provider, extract the prediction, validate it, and persist the result.
package solver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/puzzlebench/arc-explainer/internal/arc"
)

// systemPrompt instructs the model to answer with the JSON payload the
// extractor understands.
const systemPrompt = `You are an expert at solving ARC-AGI puzzles. You will be shown
training examples that share a hidden transformation rule, then one or
more test inputs. Apply the rule to each test input.

Respond with a single JSON object with these fields:
- "predictedOutput": the output grid for the test input (2D array of
  integers 0-9). When there are multiple test inputs, instead provide
  "predictedOutput1", "predictedOutput2", ... one per test input in order.
- "patternDescription": a short description of the transformation rule.
- "solvingStrategy": how you derived the rule from the examples.
- "hints": an array of strings with observations that support the rule.
- "confidence": how confident you are the prediction is correct, as an
  integer from 0 to 100.

Respond with only the JSON object.`

// BuildPrompt renders the user prompt for a task. Test outputs are
// never included: the model must not see the answers it is judged
// against.
func BuildPrompt(task *arc.Task) string {
	var b strings.Builder

	b.WriteString("Training examples:\n\n")
	for i, pair := range task.Train {
		fmt.Fprintf(&b, "Example %d input:\n%s\n", i+1, renderGrid(pair.Input))
		fmt.Fprintf(&b, "Example %d output:\n%s\n\n", i+1, renderGrid(pair.Output))
	}

	inputs := task.TestInputs()
	if len(inputs) == 1 {
		fmt.Fprintf(&b, "Test input:\n%s\n", renderGrid(inputs[0]))
	} else {
		for i, in := range inputs {
			fmt.Fprintf(&b, "Test input %d:\n%s\n\n", i+1, renderGrid(in))
		}
	}

	return b.String()
}

func renderGrid(g arc.Grid) string {
	// JSON rows keep the grid unambiguous for the model and cheap to
	// echo back.
	rows := make([]string, len(g))
	for i, row := range g {
		encoded, _ := json.Marshal(row)
		rows[i] = string(encoded)
	}
	return "[" + strings.Join(rows, ",\n ") + "]"
}
