// Package demo provides the example tasks a fresh local store starts with.
package demo

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

//go:embed tasks.yaml
var tasksYAML []byte

type seedFile struct {
	Tasks []seedTask `yaml:"tasks"`
}

type seedTask struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Completed   bool     `yaml:"completed"`
	Created     string   `yaml:"created"`
	Due         string   `yaml:"due"`
	Priority    string   `yaml:"priority"`
	Tags        []string `yaml:"tags"`
}

// Tasks returns the demo tasks with timestamps anchored at now.
func Tasks(now time.Time) ([]types.Task, error) {
	return parse(tasksYAML, now)
}

func parse(data []byte, now time.Time) ([]types.Task, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse demo tasks: %w", err)
	}

	now = now.UTC()
	out := make([]types.Task, 0, len(f.Tasks))
	for _, st := range f.Tasks {
		created, err := offset(now, st.Created)
		if err != nil {
			return nil, fmt.Errorf("demo task %s created: %w", st.ID, err)
		}
		p := types.DefaultPriority
		if st.Priority != "" {
			if p, err = types.ParsePriority(st.Priority); err != nil {
				return nil, fmt.Errorf("demo task %s: %w", st.ID, err)
			}
		}
		t := types.Task{
			ID:          st.ID,
			Title:       st.Title,
			Description: st.Description,
			Completed:   st.Completed,
			CreatedAt:   created,
			Priority:    p,
			Tags:        types.CleanTags(st.Tags),
		}
		if st.Due != "" {
			due, err := offset(now, st.Due)
			if err != nil {
				return nil, fmt.Errorf("demo task %s due: %w", st.ID, err)
			}
			t.DueDate = &due
		}
		out = append(out, t)
	}
	return out, nil
}

func offset(now time.Time, s string) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(d), nil
}
