package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/balance-strategy/internal/layout"
	"github.com/danielpatrickdp/balance-strategy/internal/store"
	"github.com/danielpatrickdp/balance-strategy/internal/strategy"
)

var (
	inspectLast    int
	inspectTableID string
	inspectJSON    bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [signature]",
	Short: "List saved tables or show the rows of one signature",
	Long: `Without arguments, lists the most recent table versions. With a signature
such as UNRESOLVED-12 or HEAVY-1:LIGHT-2, prints every tabulated layout for it
from the active table (or --table).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

var activateCmd = &cobra.Command{
	Use:   "activate [table-id]",
	Short: "Make a saved table version the active one",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivate,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "show N most recent tables")
	inspectCmd.Flags().StringVar(&inspectTableID, "table", "", "table version to read rows from")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON instead of table")
}

// #region list-mode
type listRow struct {
	TableID    string `json:"table_id"`
	Population int    `json:"population"`
	Signatures int    `json:"signatures"`
	Layouts    int    `json:"layouts"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		var table *strategy.Table
		if inspectTableID != "" {
			table, err = s.LoadTable(inspectTableID)
		} else {
			table, _, err = s.LoadActive()
		}
		if err != nil {
			return regenerate(err)
		}
		return runDetailMode(out, table, layout.Signature(strings.ToUpper(args[0])))
	}

	records, err := s.ListTables(inspectLast)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return regenerate(store.ErrMissingTable)
	}

	rows := make([]listRow, len(records))
	for i, r := range records {
		rows[i] = listRow{
			TableID:    r.TableID,
			Population: r.Population,
			Signatures: r.Signatures,
			Layouts:    r.Layouts,
			Active:     r.Active,
			CreatedAt:  r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if inspectJSON {
		return printJSON(out, rows)
	}

	fmt.Fprintf(out, "%-36s  %4s  %10s  %8s  %-6s  %s\n", "Table", "Pop", "Signatures", "Layouts", "Active", "Time")
	fmt.Fprintf(out, "%-36s+-%4s+-%10s+-%8s+-%-6s+-%s\n",
		strings.Repeat("-", 36), "----", "----------", "--------", "------", "--------------------")
	for _, r := range rows {
		active := ""
		if r.Active {
			active = "*"
		}
		fmt.Fprintf(out, "%-36s  %4d  %10d  %8d  %-6s  %s\n", r.TableID, r.Population, r.Signatures, r.Layouts, active, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode
type detailRow struct {
	GroupA    []string `json:"group_a"`
	GroupB    []string `json:"group_b"`
	WorstCase int      `json:"worst_case_steps"`
	Best      bool     `json:"best"`
}

func runDetailMode(out io.Writer, table *strategy.Table, sig layout.Signature) error {
	if _, err := layout.ParseSignature(sig); err != nil {
		return err
	}
	entries, ok := table.Entries(sig)
	if !ok {
		return fmt.Errorf("%w: %s", strategy.ErrMissingMemoEntry, sig)
	}
	best, err := table.Best(sig)
	if err != nil {
		return err
	}

	rows := make([]detailRow, len(entries))
	marked := false
	for i, e := range entries {
		r := strategy.EntryRecord(e)
		rows[i] = detailRow{GroupA: r.GroupA, GroupB: r.GroupB, WorstCase: r.WorstCaseSteps}
		if !marked && e.WorstCase == best.WorstCase {
			rows[i].Best = true
			marked = true
		}
	}
	if inspectJSON {
		return printJSON(out, rows)
	}

	fmt.Fprintf(out, "%s (population %d, %d layouts)\n", sig, table.Population, len(rows))
	for i, r := range rows {
		mark := " "
		if r.Best {
			mark = "*"
		}
		cost := fmt.Sprintf("%d", r.WorstCase)
		if r.WorstCase >= strategy.NoInformation {
			cost = "-"
		}
		fmt.Fprintf(out, "%s %-40s %s\n", mark, entries[i].Layout, cost)
	}
	return nil
}

// #endregion detail-mode

func runActivate(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Activate(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "table %s active\n", args[0])
	return nil
}

// #region output
func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion output
