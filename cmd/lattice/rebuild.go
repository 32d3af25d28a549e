package main

import (
	"context"
	"fmt"

	"github.com/lattice-db/lattice/internal/rebuild"
	"github.com/spf13/cobra"
)

func newRebuildCmd() *cobra.Command {
	var dropUnused bool
	cmd := &cobra.Command{
		Use:   "rebuild <collection-id>",
		Short: "Rebuild a collection's indexes (Scanning -> Dropping? -> Clearing -> Indexing)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			result, err := e.RebuildIndexes(ctx, args[0], dropUnused, func(phase rebuild.Phase) {
				fmt.Println(dimStyle.Render(string(phase) + "..."))
			})
			if err != nil {
				return err
			}

			fmt.Println(renderTable(
				[]string{"documents_scanned", "indexes_dropped", "indexes_created", "errors"},
				[][]string{{
					fmt.Sprint(result.DocumentsScanned),
					fmt.Sprint(result.IndexesDropped),
					fmt.Sprint(result.IndexesCreated),
					fmt.Sprint(len(result.Errors)),
				}},
			))
			for _, e := range result.Errors {
				fmt.Printf("  %s: %v\n", e.DocumentID, e.Err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dropUnused, "drop-unused", false, "in Selective mode, drop index tables for fields no longer indexed")
	return cmd
}
