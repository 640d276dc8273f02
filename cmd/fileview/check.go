package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/config"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	allowedStyle = cellStyle.Foreground(lipgloss.Color("2"))
	refusedStyle = cellStyle.Foreground(lipgloss.Color("1"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>...",
		Short: "Show how paths resolve against the allowlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, pol, err := loadPolicy(config.NewLoader())
			if err != nil {
				return err
			}
			v := access.NewValidator(pol, nil)
			return writeCheck(cmd.OutOrStdout(), v, args)
		},
	}
}

type checkRow struct {
	Input      string
	Normalized string
	Verdict    string
	Root       string
	Canonical  string
}

func checkPaths(v *access.Validator, paths []string) []checkRow {
	rows := make([]checkRow, 0, len(paths))
	for _, raw := range paths {
		row := checkRow{Input: raw, Normalized: v.Normalize(raw), Root: "-", Canonical: "-"}
		target, err := v.ResolveForRead(raw)
		if err != nil {
			row.Verdict = access.KindOf(err).String()
		} else {
			row.Verdict = "allowed"
			row.Root = target.Root
			row.Canonical = target.Path
		}
		rows = append(rows, row)
	}
	return rows
}

func writeCheck(w io.Writer, v *access.Validator, paths []string) error {
	rows := checkPaths(v, paths)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("INPUT", "NORMALIZED", "VERDICT", "ROOT", "CANONICAL")
	for _, r := range rows {
		t.Row(r.Input, r.Normalized, r.Verdict, r.Root, r.Canonical)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 2 {
			if rows[row].Verdict == "allowed" {
				return allowedStyle
			}
			return refusedStyle
		}
		return cellStyle
	})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
