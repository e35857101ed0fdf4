package nutri

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var (
	exportFormat string
	exportOut    string
	importIn     string
	importMode   string
	importDryRun bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the practice (json) or a patient summary (csv, xlsx)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(exportOut) == "" {
			return fmt.Errorf("--out is required (use - for stdout)")
		}
		format := strings.ToLower(strings.TrimSpace(exportFormat))
		if format == "xlsx" && exportOut == "-" {
			return fmt.Errorf("xlsx export needs a file path")
		}
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			var data []byte
			switch format {
			case "json":
				snap, err := service.ExportSnapshot(sqldb)
				if err != nil {
					return err
				}
				b, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal export json: %w", err)
				}
				data = append(b, '\n')
			case "csv":
				rows, err := service.PatientSummaries(sqldb, time.Now())
				if err != nil {
					return err
				}
				var buf strings.Builder
				if err := service.WritePatientSummaryCSV(&buf, rows); err != nil {
					return err
				}
				data = []byte(buf.String())
			case "xlsx":
				rows, err := service.PatientSummaries(sqldb, time.Now())
				if err != nil {
					return err
				}
				if data, err = service.PatientSummaryXLSX(rows); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported --format %q (use json, csv or xlsx)", exportFormat)
			}
			if exportOut == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(exportOut, data, 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			logger.Info("export written", zap.String("format", format), zap.String("path", exportOut))
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", format, exportOut)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a practice JSON document (replace or merge)",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(importIn)
		if err != nil {
			return err
		}
		snap, err := service.ParseSnapshot(raw)
		if err != nil {
			return err
		}
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			report, err := service.ImportSnapshot(sqldb, snap, service.ImportOptions{
				Mode:   service.ImportMode(importMode),
				DryRun: importDryRun,
			})
			if err != nil {
				return err
			}
			logger.Info("import finished",
				zap.String("mode", string(report.Mode)),
				zap.Bool("dry_run", report.DryRun),
				zap.Int("patients", report.Patients))
			printImportReport(cmd.OutOrStdout(), report)
			return nil
		})
	},
}

func printImportReport(out io.Writer, r service.ImportReport) {
	prefix := "Imported"
	if r.DryRun {
		prefix = "Dry run: would import"
	}
	fmt.Fprintf(out, "%s (%s): %d users, %d patients, %d notes, %d measurements, %d labs, %d plans, %d adherence days\n",
		prefix, r.Mode, r.Users, r.Patients, r.Notes, r.Measurements, r.Labs, r.Plans, r.AdherenceDays)
	if r.ThemeReplaced {
		fmt.Fprintln(out, "Theme replaced")
	}
	if r.UnlinkedUsers > 0 {
		fmt.Fprintf(out, "Unlinked %d user(s) from missing patients\n", r.UnlinkedUsers)
	}
	if r.DeactivatedPlans > 0 {
		fmt.Fprintf(out, "Deactivated %d extra active plan(s)\n", r.DeactivatedPlans)
	}
	if r.SessionCleared {
		fmt.Fprintln(out, "Session cleared: the logged-in user is no longer present")
	}
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json, csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file path (- for stdout)")
	importCmd.Flags().StringVar(&importIn, "in", "", "Input JSON file (- for stdin)")
	importCmd.Flags().StringVar(&importMode, "mode", string(service.ImportModeReplace), "Import mode: replace or merge")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and count without writing")
}
