package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ScenarioOutcome is the result of running one scenario file.
type ScenarioOutcome struct {
	Path   string  `json:"path"`
	Name   string  `json:"name,omitempty"`
	Result *Result `json:"result,omitempty"`
	// Err is set when the scenario could not be loaded or executed.
	Err string `json:"error,omitempty"`
}

// Passed reports whether the scenario ran and all its assertions held.
func (o ScenarioOutcome) Passed() bool {
	return o.Err == "" && o.Result != nil && o.Result.Pass
}

// SuiteResult aggregates the outcomes of a scenario run.
type SuiteResult struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
}

// FindScenarios returns the scenario files at path. A file is returned as
// is; a directory is searched recursively for .yaml and .yml files, sorted
// by path.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}

// RunSuite loads and runs every scenario found at path. Load and execution
// failures are recorded per scenario and do not stop the run.
func RunSuite(ctx context.Context, path string, opts ...Option) (*SuiteResult, error) {
	files, err := FindScenarios(path)
	if err != nil {
		return nil, err
	}

	h := &Harness{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}

	suite := &SuiteResult{Scenarios: make([]ScenarioOutcome, 0, len(files))}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome := ScenarioOutcome{Path: file}
		scenario, err := LoadScenario(file)
		if err != nil {
			outcome.Err = err.Error()
		} else {
			outcome.Name = scenario.Name
			result, err := RunContext(ctx, scenario, opts...)
			if err != nil {
				outcome.Err = err.Error()
			} else {
				outcome.Result = result
			}
		}

		logOutcome(h.logger, outcome)
		if outcome.Passed() {
			suite.Passed++
		} else {
			suite.Failed++
		}
		suite.Scenarios = append(suite.Scenarios, outcome)
	}
	return suite, nil
}

func logOutcome(logger *zap.Logger, o ScenarioOutcome) {
	if o.Passed() {
		logger.Info("scenario passed", zap.String("path", o.Path), zap.String("name", o.Name))
		return
	}
	logger.Warn("scenario failed", zap.String("path", o.Path), zap.String("name", o.Name), zap.String("error", o.Err))
}
