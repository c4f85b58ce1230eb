package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"bulbfinder/harvester/internal/container"
	"bulbfinder/harvester/internal/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Shows the progress stored by an interrupted run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			app, err := container.NewCheckpointsOnly(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			snap := app.Checkpoints.Load(cmd.Context())
			renderStatus(cmd.OutOrStdout(), app.Checkpoints.Location(), snap)
			return nil
		},
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func renderStatus(w io.Writer, location string, snap *domain.Snapshot) {
	if snap == nil {
		fmt.Fprintf(w, "No progress stored at %s\n", location)
		return
	}

	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Checkpoint", location},
		{"Last processed", snap.Cursor.String()},
		{"Saved at", snap.SavedAt.Local().Format(time.DateTime)},
		{"Records", len(snap.Records)},
	})
	t.Render()

	perYear := make(map[string]int)
	for _, r := range snap.Records {
		perYear[r.Year]++
	}
	if len(perYear) == 0 {
		return
	}

	t = newTable(w)
	t.AppendHeader(table.Row{"Year", "Makes", "Records"})
	for _, year := range slices.Sorted(maps.Keys(perYear)) {
		t.AppendRow(table.Row{year, countMakes(snap.Records, year), perYear[year]})
	}
	t.AppendFooter(table.Row{"Total", "", len(snap.Records)})
	t.Render()
}

func countMakes(records []domain.FitmentRecord, year string) int {
	makes := make(map[string]struct{})
	for _, r := range records {
		if r.Year == year {
			makes[r.Make] = struct{}{}
		}
	}
	return len(makes)
}
