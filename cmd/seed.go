package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/bancalia/finconsole/packages/product_console/internal/dates"
	"github.com/bancalia/finconsole/packages/product_console/internal/form"
	"github.com/bancalia/finconsole/packages/product_console/internal/models"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Bulk-create products from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if cfg.Seed.File == "" {
			return fmt.Errorf("seed.file is required")
		}
		data, err := os.ReadFile(cfg.Seed.File)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
		var drafts []models.Product
		if err := json.Unmarshal(data, &drafts); err != nil {
			return fmt.Errorf("parse seed file: %w", err)
		}

		// Same sync rules the form applies; invalid records are
		// reported and skipped, they never reach the backend.
		today := dates.Today()
		valid := drafts[:0]
		for _, draft := range drafts {
			if reasons := draftErrors(draft, today); len(reasons) > 0 {
				log.Warnw("skipping invalid seed record", "id", draft.ID, "errors", reasons)
				fmt.Fprintf(os.Stderr, "omitido %q: %v\n", draft.ID, reasons)
				continue
			}
			draft.DateRevision = dates.DeriveRevision(draft.DateRelease)
			valid = append(valid, draft)
		}
		if len(valid) == 0 {
			return fmt.Errorf("no valid records in %s", cfg.Seed.File)
		}

		bar := progressbar.Default(int64(len(valid)), "Creando productos...")
		sem := semaphore.NewWeighted(int64(cfg.Seed.ConcurrentCreates))
		var wg sync.WaitGroup
		var failed atomic.Int64
		for _, draft := range valid {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(draft models.Product) {
				defer wg.Done()
				defer sem.Release(1)
				if _, err := services.Gateway.Create(ctx, draft); err != nil {
					failed.Add(1)
					log.Warnw("seed create failed", "id", draft.ID, "msg", err.Error())
				}
				_ = bar.Add(1)
			}(draft)
		}
		wg.Wait()
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)

		if n := failed.Load(); n > 0 {
			return fmt.Errorf("seed finished with %d failures of %d", n, len(valid))
		}
		log.Infow("seed completed", "records", len(valid))
		return nil
	},
}

func draftErrors(draft models.Product, today models.Date) []string {
	release := ""
	if !draft.DateRelease.IsZero() {
		release = draft.DateRelease.String()
	}
	values := map[form.Field]string{
		form.FieldID:          draft.ID,
		form.FieldName:        draft.Name,
		form.FieldDescription: draft.Description,
		form.FieldLogo:        draft.Logo,
		form.FieldDateRelease: release,
	}
	var reasons []string
	for _, f := range form.Fields {
		value, ok := values[f]
		if !ok {
			continue
		}
		for _, code := range form.Validate(f, value, today) {
			reasons = append(reasons, fmt.Sprintf("%s: %s", f, code))
		}
	}
	return reasons
}
