package commands

import (
	"io"
	"os"
	"time"

	"odpn-automation/internal/journal"
	"odpn-automation/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	journalFile string
	journalRuns bool
)

func init() {
	journalCmd.Flags().StringVar(&journalFile, "file", "", "The CSV file to list entries for, defaults to the config's plik.")
	journalCmd.Flags().BoolVar(&journalRuns, "runs", false, "List runs instead of the entries of one file.")
	rootCmd.AddCommand(journalCmd)
}

func printEntries(w io.Writer, entries []journal.Entry) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Wiersz", "Miesiąc", "Kategoria", "Status", "Przebieg", "Czas", "Szczegóły"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Row,
			e.Month,
			shorten(e.Category, 30),
			string(e.Status),
			e.RunID,
			e.CreatedAt.Format(time.DateTime),
			shorten(e.Detail, 60),
		})
	}
	t.Render()
}

func printRuns(w io.Writer, runs []journal.Run) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Przebieg", "Plik", "Wysłano", "Błędy", "Start"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.ID, r.FileName, r.Sent, r.Failed, r.Started.Format(time.DateTime)})
	}
	t.Render()
}

var journalCmd = &cobra.Command{
	Use:   "journal [--file <path>] [--runs]",
	Short: "Lists what earlier runs sent.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		store, err := journal.Open(journalPath(cfg))
		if err != nil {
			serviceutil.Fatal("failed to open journal", err)
		}
		defer store.Close()

		if journalRuns {
			runs, err := store.Runs(cmd.Context())
			if err != nil {
				serviceutil.Fatal("failed to list runs", err)
			}
			printRuns(os.Stdout, runs)
			return
		}

		layout, err := cfg.layout()
		if err != nil {
			serviceutil.Fatal("unknown layout", err)
		}
		file := cfg.InputFile(layout, journalFile)
		hash, err := journal.HashFile(file)
		if err != nil {
			serviceutil.Fatal("failed to read csv", err)
		}
		entries, err := store.List(cmd.Context(), hash)
		if err != nil {
			serviceutil.Fatal("failed to list entries", err)
		}
		printEntries(os.Stdout, entries)
	},
}
