package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "schema", Short: "Inspect inferred schemas"}
	cmd.AddCommand(newSchemaShowCmd())
	return cmd
}

func newSchemaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <schema-id>",
		Short: "List the elements of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			elements, err := e.ListSchemaElements(ctx, args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(elements))
			for _, el := range elements {
				rows = append(rows, []string{fmt.Sprint(el.Position), el.Key, string(el.DataType), fmt.Sprint(el.Nullable)})
			}
			fmt.Println(renderTable([]string{"position", "key", "data_type", "nullable"}, rows))
			return nil
		},
	}
}
