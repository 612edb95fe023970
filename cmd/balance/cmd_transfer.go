package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/balance-strategy/internal/eval"
	"github.com/danielpatrickdp/balance-strategy/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write the active table as a JSON document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Audit a JSON table document and save it as the active version",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runExport(cmd *cobra.Command, args []string) error {
	path := cfg.Store.ExportPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no export path: pass one or set store.export_path")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	table, rec, err := s.LoadActive()
	if err != nil {
		return regenerate(err)
	}
	if err := store.ExportJSON(path, table); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "table %s written to %s\n", rec.TableID, path)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	table, err := store.ImportJSON(args[0])
	if err != nil {
		return regenerate(err)
	}

	audit := eval.NewEvalHarness(eval.EvalConfig{MaxSteps: cfg.Build.MaxSteps}).Run(table)
	if !audit.Passed {
		return fmt.Errorf("table rejected: %s", audit.Reason)
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.SaveTable(table)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "table %s imported (population %d)\n", rec.TableID, rec.Population)
	return nil
}
