package suite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"stackprobe/pkg/logging"

	"gopkg.in/yaml.v3"
)

type scenarioLoader struct{}

// NewLoader creates a Loader reading YAML scenario files.
func NewLoader() Loader {
	return &scenarioLoader{}
}

// LoadScenarios reads path, which is either a scenario file or a directory
// searched recursively for *.yaml and *.yml files. A file may hold several
// scenarios as separate YAML documents.
func (l *scenarioLoader) LoadScenarios(path string) ([]Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access scenario path %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isScenarioFile(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list scenarios in %s: %w", path, err)
		}
		sort.Strings(files)
	} else {
		files = []string{path}
	}

	var scenarios []Scenario
	seen := make(map[string]string)
	for _, file := range files {
		loaded, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		for _, s := range loaded {
			if previous, ok := seen[s.Name]; ok {
				return nil, fmt.Errorf("duplicate scenario %q in %s (first defined in %s)", s.Name, file, previous)
			}
			seen[s.Name] = file
			scenarios = append(scenarios, s)
		}
	}

	logging.Debug("Suite", "Loaded %d scenario(s) from %d file(s)", len(scenarios), len(files))
	return scenarios, nil
}

func isScenarioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func loadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var scenarios []Scenario
	for {
		var s Scenario
		err := decoder.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
		}
		if err := ValidateScenario(s); err != nil {
			return nil, fmt.Errorf("invalid scenario in %s: %w", path, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// ValidateScenario checks that a scenario can be executed.
func ValidateScenario(s Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for i, step := range append(append([]Step(nil), s.Steps...), s.Cleanup...) {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("scenario %q step %d (%s): %w", s.Name, i+1, step.Name, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Kind() {
	case StepCommand:
		return nil
	case StepWaitUntil:
		if step.WaitUntil.Command == "" || step.WaitUntil.Expected == "" {
			return fmt.Errorf("wait_until needs command and expected")
		}
		if step.WaitUntil.MaxAttempts < 0 || step.WaitUntil.Delay < 0 {
			return fmt.Errorf("wait_until attempts and delay must not be negative")
		}
		return nil
	case StepWorkflow:
		if _, ok := workflowSteps[step.Workflow.Name]; !ok {
			return fmt.Errorf("unknown workflow %q", step.Workflow.Name)
		}
		return nil
	case StepScaffold:
		if step.Scaffold.Project == "" || step.Scaffold.Endpoint == "" {
			return fmt.Errorf("scaffold needs project and endpoint")
		}
		return nil
	default:
		return fmt.Errorf("exactly one of command, wait_until, workflow or scaffold must be set")
	}
}

// FilterScenarios keeps scenarios matching the configured name and tags.
func (l *scenarioLoader) FilterScenarios(scenarios []Scenario, config Configuration) []Scenario {
	var filtered []Scenario
	for _, s := range scenarios {
		if config.Scenario != "" && s.Name != config.Scenario {
			continue
		}
		if len(config.Tags) > 0 && !hasAnyTag(s.Tags, config.Tags) {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
