package main

import (
	"context"

	"github.com/desertthunder/migtrack/internal/catalog"
	"github.com/urfave/cli/v3"
)

type catalogEntry struct {
	catalog.Descriptor
	DerivedTasks []string `json:"derived_tasks"`
}

// CatalogList prints the components of the catalog file with their derived tasks.
func (r *Runner) CatalogList(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Tracker.CatalogPath
	if v := cmd.String("catalog"); v != "" {
		path = v
	}

	cat, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}
	r.logger.Debug("catalog loaded", "path", path, "components", cat.Len())

	if cmd.Bool("json") {
		entries := make([]catalogEntry, 0, cat.Len())
		for _, d := range cat.Descriptors() {
			entries = append(entries, catalogEntry{Descriptor: d, DerivedTasks: d.DeriveTasks()})
		}
		return r.writeJSON(entries, true)
	}

	r.writePlainHeader("Component Catalog")
	for _, d := range cat.Descriptors() {
		tasks := d.DeriveTasks()
		r.writePlain("%-24s %-8s %-10s %d tasks\n", d.Name, orDash(d.Priority), orDash(d.EstimatedEffort), len(tasks))
		if cmd.Bool("tasks") {
			for _, t := range tasks {
				r.writePlain("    - %s\n", t)
			}
		}
	}
	r.writePlain("\n%d components\n", cat.Len())
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
