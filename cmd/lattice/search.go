package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var (
		includeContent bool
		includeLabels  bool
		includeTags    bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: `Run a restricted SQL-like query, e.g. "SELECT * FROM mycoll WHERE age > 30 ORDER BY name LIMIT 10"`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			resp, err := e.SearchSQL(ctx, args[0], includeContent, includeLabels, includeTags)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(resp.Results))
			for _, r := range resp.Results {
				rows = append(rows, []string{r.Document.ID, r.Document.SHA256Hash, fmt.Sprint(r.Document.ContentLength)})
			}
			fmt.Println(renderTable([]string{"id", "sha256_hash", "content_length"}, rows))
			fmt.Printf("%d result(s), %d remaining, end_of_results=%v\n",
				len(resp.Results), resp.RecordsRemaining, resp.EndOfResults)
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeContent, "include-content", false, "hydrate each result's raw JSON blob")
	cmd.Flags().BoolVar(&includeLabels, "include-labels", false, "hydrate each result's labels")
	cmd.Flags().BoolVar(&includeTags, "include-tags", false, "hydrate each result's tags")
	return cmd
}
