package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/sysdetect"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

func (a *app) listCmd() *cobra.Command {
	var configPath string
	var categories []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the benchmark controls in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(configPath)
			if err != nil {
				return err
			}
			registry, err := buildCatalog(cfg, "")
			if err != nil {
				return err
			}
			cats := registry.Select(categories...)
			printControlList(a, cats)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file with declared controls")
	cmd.Flags().StringArrayVar(&categories, "category", nil, "List only matching categories (repeatable)")
	return cmd
}

// printControlList prints a table of control IDs grouped by category.
func printControlList(a *app, cats []types.Category) {
	maxID, total := 0, 0
	for _, cat := range cats {
		for _, c := range cat.Controls {
			maxID = max(maxID, len(c.ID))
			total++
		}
	}

	fmt.Fprintf(a.stdout, "\n  Benchmark controls (%d):\n", total)
	for _, cat := range cats {
		fmt.Fprintf(a.stdout, "\n  %s\n", cat.Title)
		for _, c := range cat.Controls {
			fmt.Fprintf(a.stdout, "    %-*s  %-10s  %s\n", maxID, c.ID, c.ScoringClass(), c.Title)
		}
	}
	fmt.Fprintln(a.stdout)
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a config file without running any probe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg, err := a.loadConfig(path)
			if err != nil {
				return err
			}
			// Declared controls must also fit alongside the built-in catalogue.
			if _, err := buildCatalog(cfg, ""); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(a.stdout, "  ✓ %s is valid (%d declared control(s))\n", path, len(cfg.Controls))
			return nil
		},
	}
}

func (a *app) envCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Detect the host and write its identity to .env",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, warnings, err := sysdetect.Detect(a.newDetector())
			if err != nil {
				return err
			}
			for _, w := range warnings {
				a.warn(w)
			}
			if err := sysdetect.WriteEnvFile(a.envFile, host); err != nil {
				return err
			}

			values := sysdetect.EnvValues(host)
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(a.stdout, "  %s=%s\n", k, values[k])
			}
			fmt.Fprintf(a.stdout, "  ✓ Wrote %s\n", a.envFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&a.envFile, "file", a.envFile, "Destination file")
	return cmd
}
