package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/okian/aimsync/internal/domain/baseline"
	"github.com/okian/aimsync/internal/domain/registry"
	"github.com/okian/aimsync/internal/domain/types"
)

func baselineCommand(ctx context.Context, deps Deps, configPath string) error {
	cfg, err := setup(ctx, deps, configPath, "")
	if err != nil {
		return err
	}
	sheet, err := deps.NewSheet(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	spec := baselineSpec(cfg)
	reg, err := baseline.Load(ctx, sheet, spec)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	renderBaseline(deps, reg, spec.Averaging)
	return nil
}

func renderBaseline(deps Deps, reg *registry.Registry, averaging bool) {
	views := types.FromEntries(reg.Snapshot())

	t := table.NewWriter()
	t.SetOutputMirror(deps.Stdout)
	t.SetStyle(table.StyleLight)
	header := table.Row{"#", "Scenario", "Highscore", "Cells"}
	if averaging {
		header = append(header, "Average", "Average cells")
	}
	t.AppendHeader(header)
	for i, v := range views {
		row := table.Row{i + 1, v.Name, fmt.Sprintf("%.1f", v.Best), strings.Join(v.HighscoreCells, " ")}
		if averaging {
			row = append(row, fmt.Sprintf("%.1f", v.Average), strings.Join(v.AverageCells, " "))
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d scenarios", len(views))})
	t.Render()
}
