package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <id>",
	Short: "Check whether a product identifier is already in use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		exists, err := services.Gateway.CheckUnique(ctx, args[0])
		if err != nil {
			return fmt.Errorf("%s", err.Error())
		}
		if exists {
			fmt.Printf("El ID %q ya existe\n", args[0])
		} else {
			fmt.Printf("El ID %q está disponible\n", args[0])
		}
		return nil
	},
}
