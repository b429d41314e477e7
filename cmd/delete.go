package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product after confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		engine := services.List
		engine.Load(ctx)
		if msg := engine.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}

		for _, p := range engine.Records() {
			if p.ID != args[0] {
				continue
			}
			engine.OpenDelete(p)
			if !deleteYes && !confirm(fmt.Sprintf("¿Eliminar %q (%s)?", p.Name, p.ID)) {
				engine.CancelDelete()
				fmt.Println("Operación cancelada")
				return nil
			}
			// The reload inside ConfirmDelete clears Err, so the
			// failure only surfaces through the alert callback.
			var alertMsg string
			engine.OnAlert(func(msg string) { alertMsg = msg })
			engine.ConfirmDelete(ctx)
			if alertMsg != "" {
				return fmt.Errorf("%s", alertMsg)
			}
			log.Infow("delete completed", "id", p.ID)
			return nil
		}
		return fmt.Errorf("producto %q no encontrado", args[0])
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes" || answer == "s" || answer == "si"
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the confirmation prompt")
}
