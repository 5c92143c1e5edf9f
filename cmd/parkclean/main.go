package main

import (
	"fmt"
	"os"
	"time"

	"parkclean/adapters/postgres"
	"parkclean/app"
	"parkclean/internal/config"
	"parkclean/internal/report"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "parkclean",
		Short: "Clean municipal parking-violation CSV extracts and summarize them",
	}

	rootCmd.AddCommand(
		newCleanCmd(),
		newProfileCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment config and overlays any flags the
// user actually set
func loadConfig(cmd *cobra.Command, input, output string, chunkSize, topN int, threshold float64) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if input != "" {
		cfg.Input.File = input
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.File = output
	}
	if cmd.Flags().Changed("chunk-size") {
		cfg.Input.ChunkSize = chunkSize
	}
	if cmd.Flags().Changed("top-n") {
		cfg.Output.TopN = topN
	}
	if cmd.Flags().Changed("null-threshold") {
		cfg.Cleaning.NullRatioThreshold = threshold
	}
	if cfg.Input.File == "" {
		return nil, fmt.Errorf("no input file: pass one as an argument or set INPUT_FILE")
	}
	return cfg, nil
}

func newCleanCmd() *cobra.Command {
	var output string
	var chunkSize int
	var topN int
	var threshold float64
	var skipDB bool

	cmd := &cobra.Command{
		Use:   "clean [input-file]",
		Short: "Run the full pipeline: profile, clean, summarize, export",
		Long: `Profile the input, clean it chunk by chunk, and write the styled
summary workbook. If DATABASE_URL is set the cleaned rows are also
loaded into Postgres.

Example: parkclean clean violations.csv --output summary.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			cfg, err := loadConfig(cmd, input, output, chunkSize, topN, threshold)
			if err != nil {
				return err
			}

			var loader app.Loader
			if cfg.Database.URL != "" && !skipDB {
				store, err := postgres.Open(cfg.Database.URL)
				if err != nil {
					return err
				}
				defer store.Close()
				loader = store
			}

			result, err := app.NewCleanService(cfg, loader).Run(cmd.Context())
			if err != nil {
				return err
			}

			report.RenderConsole(os.Stdout, result.Run)
			fmt.Printf("\nWorkbook written to %s (run %s, %s)\n",
				result.OutputPath, result.RunID, result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "violations_summary.xlsx", "Summary workbook path")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 50000, "Rows per processing chunk")
	cmd.Flags().IntVar(&topN, "top-n", 25, "Groups per aggregate table")
	cmd.Flags().Float64Var(&threshold, "null-threshold", 0.6, "Null ratio above which a column is dropped")
	cmd.Flags().BoolVar(&skipDB, "skip-db", false, "Skip the database load even if DATABASE_URL is set")

	return cmd
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [input-file]",
		Short: "Profile the input and print inferred types and null ratios",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			cfg, err := loadConfig(cmd, input, "", 0, 0, 0)
			if err != nil {
				return err
			}

			tableProfile, schema, err := app.NewCleanService(cfg, nil).Profile(cmd.Context())
			if err != nil {
				return err
			}

			uniques := make(map[string]int, len(tableProfile.Columns))
			for _, col := range tableProfile.Columns {
				uniques[col.Name] = col.Unique
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Column", "Type", "Null %", "Unique", "Kept"})
			for _, col := range schema.Columns {
				kept := "yes"
				if col.Dropped {
					kept = "dropped"
				}
				t.AppendRow(table.Row{col.Name, string(col.Type), fmt.Sprintf("%.1f", col.NullRatio*100), uniques[col.Name], kept})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()

			fmt.Printf("\nProfiled %d rows\n", tableProfile.RowsSampled)
			return nil
		},
	}
	return cmd
}

func newExportCmd() *cobra.Command {
	var output string
	var sheetRowCap int

	cmd := &cobra.Command{
		Use:   "export [input-file]",
		Short: "Clean the input and write only the summary workbook",
		Long: `Run the cleaning pipeline and write the summary workbook without
touching the database, whatever DATABASE_URL says.

Example: parkclean export violations.csv -o audit.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			cfg, err := loadConfig(cmd, input, output, 0, 0, 0)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sheet-row-cap") {
				cfg.Output.SheetRowCap = sheetRowCap
			}

			result, err := app.NewCleanService(cfg, nil).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Workbook written to %s: %d/%d rows kept\n",
				result.OutputPath, result.Stats.RowsKept, result.Stats.RowsRead)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "violations_summary.xlsx", "Summary workbook path")
	cmd.Flags().IntVar(&sheetRowCap, "sheet-row-cap", 1000, "Maximum data rows per workbook sheet")

	return cmd
}
