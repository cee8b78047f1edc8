package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"odpn-automation/internal/expenses"
	"odpn-automation/internal/runner"
	"odpn-automation/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var checkFile string

func init() {
	checkCmd.Flags().StringVar(&checkFile, "file", "", "The CSV file to check, defaults to the config's plik.")
	rootCmd.AddCommand(checkCmd)
}

func formatValues(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, " | ")
}

// printPreviews renders the previews and returns how many rows would fail.
func printPreviews(w io.Writer, previews []runner.Preview) int {
	t := newTable(w)
	t.AppendHeader(table.Row{"Wiersz", "Miesiąc", "Kategoria", "NumerPola", "Id", "Pola", "Błąd"})

	failed := 0
	for _, p := range previews {
		month := "-"
		if p.Month.Valid() {
			month = p.Month.Code()
		}
		if p.Reason != "" {
			failed++
			t.AppendRow(table.Row{p.Row, month, shorten(p.Category, 30), "", "", "", p.Reason})
			continue
		}
		t.AppendRow(table.Row{
			p.Row,
			month,
			shorten(p.Category, 30),
			strconv.Itoa(p.Position.NumerPola),
			strconv.Itoa(p.Position.ID),
			formatValues(p.Values),
			"",
		})
	}
	t.Render()

	fmt.Fprintf(w, "wierszy %d, do wysłania %d, błędów %d\n", len(previews), len(previews)-failed, failed)
	return failed
}

var checkCmd = &cobra.Command{
	Use:   "check [--file <path>]",
	Short: "Shows how each row of a CSV file would be entered, without opening the portal.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		layout, err := cfg.layout()
		if err != nil {
			serviceutil.Fatal("unknown layout", err)
		}

		file := cfg.InputFile(layout, checkFile)
		rows, err := expenses.ReadFile(file, cfg.EncodingName())
		if err != nil {
			serviceutil.Fatal("failed to read csv", err)
		}

		failed := printPreviews(os.Stdout, runner.Check(layout, cfg.Chapter(layout), rows))
		if failed > 0 {
			os.Exit(2)
		}
	},
}
