package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bancalia/finconsole/packages/product_console/internal/form"
)

var (
	updateName        string
	updateDescription string
	updateLogo        string
	updateRelease     string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit an existing product through the form engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		engine := services.Form
		engine.LoadForEdit(ctx, args[0])
		if msg := engine.FormError(); msg != "" {
			return fmt.Errorf("%s", msg)
		}

		if cmd.Flags().Changed("name") {
			engine.SetValue(ctx, form.FieldName, updateName)
		}
		if cmd.Flags().Changed("description") {
			engine.SetValue(ctx, form.FieldDescription, updateDescription)
		}
		if cmd.Flags().Changed("logo") {
			engine.SetValue(ctx, form.FieldLogo, updateLogo)
		}
		if cmd.Flags().Changed("release") {
			engine.SetValue(ctx, form.FieldDateRelease, updateRelease)
		}

		return submitForm(ctx, engine)
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateName, "name", "", "Product name")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "Product description")
	updateCmd.Flags().StringVar(&updateLogo, "logo", "", "Logo file or URL")
	updateCmd.Flags().StringVar(&updateRelease, "release", "", "Release date (YYYY-MM-DD); revision is derived")
}
