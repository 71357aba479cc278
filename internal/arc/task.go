package arc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// GridPair is one input/output example within a task.
type GridPair struct {
	Input  Grid `json:"input"`
	Output Grid `json:"output"`
}

// Task is a single ARC puzzle: training pairs shown to the model and one
// or more test pairs. Test outputs are ground truth used only for
// validation; they are never included in a solve prompt.
type Task struct {
	ID    string     `json:"id"`
	Train []GridPair `json:"train"`
	Test  []GridPair `json:"test"`
}

// TestInputs returns the test input grids in order.
func (t *Task) TestInputs() []Grid {
	inputs := make([]Grid, len(t.Test))
	for i, pair := range t.Test {
		inputs[i] = pair.Input
	}
	return inputs
}

// ExpectedOutputs returns the ground-truth test output grids in order.
func (t *Task) ExpectedOutputs() []Grid {
	outputs := make([]Grid, len(t.Test))
	for i, pair := range t.Test {
		outputs[i] = pair.Output
	}
	return outputs
}

// HasMultipleTests reports whether the task has more than one test case.
// Single-test and multi-test tasks carry distinct correctness semantics
// on the stored explanation.
func (t *Task) HasMultipleTests() bool {
	return len(t.Test) > 1
}

// LoadTask reads one ARC-format JSON task file. The task ID is the file
// name without extension, matching the upstream dataset convention.
func LoadTask(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "arc: read task %s", path)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, eris.Wrapf(err, "arc: parse task %s", path)
	}
	task.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if err := task.validate(); err != nil {
		return nil, eris.Wrapf(err, "arc: invalid task %s", task.ID)
	}
	return &task, nil
}

// LoadDir loads every .json task in a directory, sorted by file name.
func LoadDir(dir string) ([]*Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "arc: read dir %s", dir)
	}

	var tasks []*Task
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		task, err := LoadTask(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (t *Task) validate() error {
	if len(t.Train) == 0 {
		return eris.New("no training pairs")
	}
	if len(t.Test) == 0 {
		return eris.New("no test pairs")
	}
	for i, pair := range t.Test {
		if len(pair.Input) == 0 || len(pair.Output) == 0 {
			return eris.Errorf("test pair %d has empty grid", i)
		}
	}
	return nil
}
