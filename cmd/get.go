package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one product record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		// There is no single-record endpoint; locate it in the full list.
		records, err := services.Gateway.List(ctx)
		if err != nil {
			return fmt.Errorf("%s", err.Error())
		}
		for _, p := range records {
			if p.ID != args[0] {
				continue
			}
			data, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal record: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}
		return fmt.Errorf("producto %q no encontrado", args[0])
	},
}
