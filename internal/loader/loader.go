// Package loader builds task graphs from YAML workflow files.
//
// A workflow file names the run and lists its tasks; each task carries a
// shell-free argv command, optional dependencies and an optional retry
// budget:
//
//	name: etl
//	tasks:
//	  - name: extract
//	    command: ["sh", "-c", "curl -s https://example.com/data"]
//	  - name: transform
//	    command: ["python3", "transform.py"]
//	    depends_on: [extract]
//	    max_retries: 2
package loader

import (
	"fmt"
	"os"

	"github.com/aescanero/dagflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Workflow is the parsed form of a workflow file.
type Workflow struct {
	Name  string     `yaml:"name"`
	Tasks []TaskSpec `yaml:"tasks"`
}

// TaskSpec declares a single task.
type TaskSpec struct {
	Name       string   `yaml:"name"`
	Command    []string `yaml:"command"`
	DependsOn  []string `yaml:"depends_on"`
	MaxRetries int      `yaml:"max_retries"`
}

// LoadFile parses a workflow file and builds its validated task graph.
func LoadFile(path string) (*Workflow, *domain.DAG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	return Load(data)
}

// Load parses workflow YAML and builds its validated task graph.
func Load(data []byte) (*Workflow, *domain.DAG, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, nil, fmt.Errorf("failed to parse workflow: %w", err)
	}

	if wf.Name == "" {
		return nil, nil, fmt.Errorf("workflow name is required")
	}
	if len(wf.Tasks) == 0 {
		return nil, nil, fmt.Errorf("workflow %q declares no tasks", wf.Name)
	}

	dag, err := wf.Build()
	if err != nil {
		return nil, nil, err
	}
	return &wf, dag, nil
}

// Build constructs the task graph: first every task, then the dependency
// edges, so declaration order inside the file does not matter.
func (w *Workflow) Build() (*domain.DAG, error) {
	dag := domain.NewDAG()

	for _, spec := range w.Tasks {
		if spec.Name == "" {
			return nil, fmt.Errorf("workflow %q has a task without a name", w.Name)
		}
		if len(spec.Command) == 0 {
			return nil, fmt.Errorf("task %q has no command", spec.Name)
		}
		t := domain.NewTask(spec.Name, domain.Command(spec.Command), spec.MaxRetries)
		if err := dag.Register(t); err != nil {
			return nil, err
		}
	}

	for _, spec := range w.Tasks {
		t, _ := dag.Lookup(spec.Name)
		for _, depName := range spec.DependsOn {
			dep, ok := dag.Lookup(depName)
			if !ok {
				return nil, fmt.Errorf("%w: task %q depends on undeclared task %q",
					domain.ErrMissingDependency, spec.Name, depName)
			}
			t.AddDependency(dep)
		}
	}

	if err := dag.Validate(); err != nil {
		return nil, fmt.Errorf("workflow %q is invalid: %w", w.Name, err)
	}
	return dag, nil
}
