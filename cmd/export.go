package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	exportOut    string
	exportSearch string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the (optionally filtered) catalog to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		engine := services.List
		engine.Load(ctx)
		if msg := engine.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		if exportSearch != "" {
			engine.Search(exportSearch)
		}
		records := engine.Filtered()

		out, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()

		bar := progressbar.Default(int64(len(records)), "Exportando...")
		w := csv.NewWriter(out)
		if err := w.Write([]string{"id", "name", "description", "logo", "date_release", "date_revision"}); err != nil {
			return err
		}
		for _, p := range records {
			row := []string{p.ID, p.Name, p.Description, p.Logo,
				p.DateRelease.String(), p.DateRevision.String()}
			if err := w.Write(row); err != nil {
				return err
			}
			_ = bar.Add(1)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)

		log.Infow("export completed", "records", len(records), "file", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "products.csv", "Output CSV path")
	exportCmd.Flags().StringVar(&exportSearch, "search", "", "Filter by name, description or id before exporting")
}
