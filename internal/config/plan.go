package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Job is one table to convert: where its rows come from and where the
// converted rows go. Locators are file paths for csv endpoints, collection
// names for mongo, and table names for SQL destinations.
type Job struct {
	Table       string `yaml:"name"`
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
}

// Plan is the YAML document named by PLAN_FILE.
//
//	tables:
//	  - name: User
//	    source: ./mongo/Rote.User.csv
//	    destination: ./out/User.csv
//
// Empty source or destination entries fall back to the naming conventions.
type Plan struct {
	Tables []Job `yaml:"tables"`
}

// LoadPlan reads and parses a plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}

	seen := make(map[string]bool, len(p.Tables))
	for i, j := range p.Tables {
		if j.Table == "" {
			return nil, fmt.Errorf("plan %s: tables[%d] has no name", path, i)
		}
		if seen[j.Table] {
			return nil, fmt.Errorf("plan %s: table %q listed twice", path, j.Table)
		}
		seen[j.Table] = true
	}
	return &p, nil
}

// Jobs resolves the tables to convert into explicit jobs. A plan file takes
// precedence over TABLES, and TABLES over DefaultTables. The tables
// argument, when non-empty, overrides all of them.
func (c *Config) Jobs(tables []string) ([]Job, error) {
	if len(tables) > 0 {
		return c.conventionJobs(tables), nil
	}

	if c.Run.PlanFile != "" {
		plan, err := LoadPlan(c.Run.PlanFile)
		if err != nil {
			return nil, err
		}
		jobs := make([]Job, 0, len(plan.Tables))
		for _, j := range plan.Tables {
			def := c.jobFor(j.Table)
			if j.Source == "" {
				j.Source = def.Source
			}
			if j.Destination == "" {
				j.Destination = def.Destination
			}
			jobs = append(jobs, j)
		}
		return jobs, nil
	}

	if len(c.Run.Tables) > 0 {
		return c.conventionJobs(c.Run.Tables), nil
	}
	return c.conventionJobs(DefaultTables), nil
}

func (c *Config) conventionJobs(tables []string) []Job {
	jobs := make([]Job, 0, len(tables))
	for _, t := range tables {
		jobs = append(jobs, c.jobFor(t))
	}
	return jobs
}

// jobFor applies the source and destination naming conventions to a table.
func (c *Config) jobFor(table string) Job {
	j := Job{Table: table}

	switch c.Source.Kind {
	case SourceMongo:
		j.Source = table
	default:
		j.Source = filepath.Join(c.Source.Dir, expand(c.Source.Pattern, c.Source.Prefix, table))
	}

	if c.Destination.IsSQL() {
		j.Destination = expand(c.Destination.TablePattern, c.Source.Prefix, table)
	} else {
		j.Destination = filepath.Join(c.Destination.Dir, expand(c.Destination.Pattern, c.Source.Prefix, table))
	}
	return j
}
