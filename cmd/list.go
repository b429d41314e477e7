package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	listSearch   string
	listPage     int
	listPageSize int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List, search and paginate the product catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		engine := services.List
		engine.Load(ctx)
		if msg := engine.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		if listSearch != "" {
			engine.Search(listSearch)
		}
		if listPageSize > 0 {
			engine.SetPageSize(listPageSize)
		}
		if listPage > 0 {
			engine.SetPage(listPage)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNOMBRE\tDESCRIPCIÓN\tLOGO\tLIBERACIÓN\tREVISIÓN")
		for _, p := range engine.Paginated() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				p.ID, p.Name, p.Description, engine.ResolveLogoURL(p.Logo),
				p.DateRelease, p.DateRevision)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("Página %d de %d (%d resultados)\n",
			engine.CurrentPage(), engine.TotalPages(), engine.ResultCount())
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "Filter by name, description or id")
	listCmd.Flags().IntVar(&listPage, "page", 0, "Page to show (default 1)")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 0, "Records per page (default from config)")
}
