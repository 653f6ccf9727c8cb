package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AveryRegier/actsix/internal/contactlog"
	"github.com/AveryRegier/actsix/internal/ingest"
	"github.com/AveryRegier/actsix/internal/model"
	"github.com/AveryRegier/actsix/internal/notes"
)

var (
	importFile   string
	importDryRun bool
	importLimit  int
	importOutput string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import contacts from a care-list spreadsheet",
	Long:  "Reads an .xlsx or .csv care list, parses each household's notes into contacts and records the ones the contact log does not already have.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("import"); err != nil {
			return err
		}
		loc, err := cfg.Import.Location()
		if err != nil {
			return err
		}

		rows, err := ingest.ReadRows(importFile, cfg.Import.IngestOptions())
		if err != nil {
			return eris.Wrap(err, "read care list")
		}
		rows = limitRows(rows, importLimit)

		rs, err := openRecordStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer rs.Close() //nolint:errcheck

		dryRun := importDryRun || cfg.Import.DryRun
		builder := contactlog.NewBuilder(rs, notes.NewDateParser(loc), contactlog.BuilderOptions{
			CaretakerRoles: cfg.Import.CaretakerRoles,
			StrictInitials: cfg.Import.StrictInitials,
		})
		proc := contactlog.NewProcessor(builder, contactlog.NewEmitter(rs, dryRun))

		results, sum := proc.Run(ctx, rows)

		if importOutput != "" {
			if err := writeResults(importOutput, results, sum); err != nil {
				return err
			}
		}

		zap.L().Info("import complete",
			zap.String("file", importFile),
			zap.Bool("dry_run", dryRun),
			zap.Int("rows", sum.Rows),
			zap.Int("rows_failed", sum.RowsFailed),
			zap.Int("created", sum.Created),
			zap.Int("duplicates", sum.Duplicates),
			zap.Int("unresolved", sum.Unresolved),
			zap.Int("submit_failures", sum.SubmitFails),
		)
		return nil
	},
}

func limitRows(rows []model.Row, limit int) []model.Row {
	if limit > 0 && limit < len(rows) {
		return rows[:limit]
	}
	return rows
}

type importReport struct {
	Summary contactlog.Summary     `json:"summary"`
	Rows    []contactlog.RowResult `json:"rows"`
}

func writeResults(path string, results []contactlog.RowResult, sum contactlog.Summary) error {
	data, err := json.MarshalIndent(importReport{Summary: sum, Rows: results}, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal results")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "write results")
	}
	return nil
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to the care list (.xlsx or .csv, required)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and deduplicate without creating contacts")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "process at most this many rows (0 = all)")
	importCmd.Flags().StringVar(&importOutput, "output", "", "write per-row results as JSON to this path")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
