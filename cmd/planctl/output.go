package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/planfile"
	"github.com/stemsi/exstem-planner/internal/response"
	"github.com/stemsi/exstem-planner/internal/sampling"
)

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printValid(cfg sampling.Configuration) error {
	if a.json {
		return a.printJSON(map[string]any{"valid": true, "total_questions": cfg.TotalQuestions})
	}
	_, err := fmt.Fprintf(a.stdout, "ok: %q draws %d questions\n", cfg.Name, cfg.TotalQuestions)
	return err
}

func (a *app) printPlan(plan sampling.Plan) error {
	if a.json {
		return a.printJSON(struct {
			sampling.Plan
			Supplied int `json:"supplied"`
		}{plan, plan.Supplied()})
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "status\t%s\n", plan.Status)
	fmt.Fprintf(tw, "seed\t%d\n", plan.Seed)
	fmt.Fprintf(tw, "supplied\t%d of %d\n", plan.Supplied(), plan.Requested)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "BUCKET\tREQUESTED\tSUPPLIED\t")
	for _, b := range plan.Buckets {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", b.Bucket, b.Requested, b.Supplied, shortMark(b))
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "questions\t%s\n", strings.Join(plan.QuestionIDs, " "))
	return tw.Flush()
}

func shortMark(b sampling.BucketReport) string {
	if b.Supplied < b.Requested {
		return "short"
	}
	return ""
}

func (a *app) printSaved(cfg sampling.Configuration) error {
	if a.json {
		return a.printJSON(map[string]any{"id": cfg.ID, "version": cfg.Version})
	}
	_, err := fmt.Fprintf(a.stdout, "saved %s (version %d)\n", cfg.ID, cfg.Version)
	return err
}

func (a *app) printConfiguration(cfg sampling.Configuration) error {
	if a.json {
		return a.printJSON(cfg)
	}
	return planfile.WriteConfiguration(a.stdout, cfg)
}

func (a *app) printList(items []model.ConfigurationSummary, p *response.Pagination) error {
	if a.json {
		return a.printJSON(map[string]any{"configurations": items, "pagination": p})
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQUESTIONS\tVERSION\tUPDATED")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", it.ID, it.Name, it.TotalQuestions, it.Version, it.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(tw, "\npage %d of %d (%d total)\n", p.Page, max(p.TotalPages, 1), p.TotalItems)
	return tw.Flush()
}
