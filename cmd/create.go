package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bancalia/finconsole/packages/product_console/internal/form"
)

var (
	createID          string
	createName        string
	createDescription string
	createLogo        string
	createRelease     string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product through the form engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		engine := services.Form
		engine.SetValue(ctx, form.FieldID, createID)
		engine.SetValue(ctx, form.FieldName, createName)
		engine.SetValue(ctx, form.FieldDescription, createDescription)
		engine.SetValue(ctx, form.FieldLogo, createLogo)
		engine.SetValue(ctx, form.FieldDateRelease, createRelease)

		return submitForm(ctx, engine)
	},
}

func init() {
	createCmd.Flags().StringVar(&createID, "id", "", "Product identifier (3-10 characters)")
	createCmd.Flags().StringVar(&createName, "name", "", "Product name")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Product description")
	createCmd.Flags().StringVar(&createLogo, "logo", "", "Logo file or URL")
	createCmd.Flags().StringVar(&createRelease, "release", "", "Release date (YYYY-MM-DD); revision is derived")
	_ = createCmd.MarkFlagRequired("id")
	_ = createCmd.MarkFlagRequired("name")
}

// submitForm waits for the debounced uniqueness check to settle, then
// runs the submit protocol and reports the outcome.
func submitForm(ctx context.Context, engine *form.Engine) error {
	if err := waitSettled(ctx, engine); err != nil {
		return err
	}
	engine.Submit(ctx)
	if msg := engine.Success(); msg != "" {
		fmt.Println(msg)
		return nil
	}
	if msg := engine.FormError(); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	// Submission never dispatched: surface the per-field errors.
	for _, f := range form.Fields {
		if engine.HasError(f) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", f, engine.ExplainError(f))
		}
	}
	return fmt.Errorf("formulario inválido")
}

func waitSettled(ctx context.Context, engine *form.Engine) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for engine.Pending() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
