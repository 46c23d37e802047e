package catalog

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

// YAML reads job specs from a single YAML document on an fs.FS, intended
// for local development and tests where a Postgres instance isn't worth
// standing up. The document is a flat list:
//
//	- name: refresh-anime
//	  cron: "0 */15 * * * * *"
//	  command: scrape-anime
//	  argument: bilibili
//	  retry_budget: 3
type YAML struct {
	fsys fs.FS
	path string
}

// NewYAML returns a YAML-backed CatalogReader reading path from fsys.
func NewYAML(fsys fs.FS, path string) *YAML {
	return &YAML{fsys: fsys, path: path}
}

type yamlJobSpec struct {
	Name        string `yaml:"name"`
	Cron        string `yaml:"cron"`
	Command     string `yaml:"command"`
	Argument    string `yaml:"argument"`
	RetryBudget int    `yaml:"retry_budget"`
}

// ListAll implements scheduler.CatalogReader.
func (y *YAML) ListAll(_ context.Context) ([]scheduler.JobSpec, error) {
	data, err := fs.ReadFile(y.fsys, y.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	var entries []yamlJobSpec
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	specs := make([]scheduler.JobSpec, 0, len(entries))
	for _, e := range entries {
		specs = append(specs, scheduler.JobSpec{
			Name:        e.Name,
			CronExpr:    e.Cron,
			CommandName: e.Command,
			Argument:    e.Argument,
			RetryBudget: e.RetryBudget,
		})
	}
	return specs, nil
}
