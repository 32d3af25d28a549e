package main

import (
	"context"
	"fmt"

	"github.com/lattice-db/lattice/internal/model"
	"github.com/spf13/cobra"
)

func newCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage collections",
	}
	cmd.AddCommand(newCollectionCreateCmd())
	cmd.AddCommand(newCollectionApplyCmd())
	return cmd
}

func newCollectionApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <manifest.yaml>",
		Short: "Create a collection, its field constraints and indexed fields from a YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			m, err := loadCollectionManifest(args[0])
			if err != nil {
				return err
			}
			c, err := applyCollectionManifest(ctx, e, m)
			if err != nil {
				return err
			}
			fmt.Println(renderTable(
				[]string{"id", "name", "enforcement", "indexing", "documents_directory"},
				[][]string{{c.ID, c.Name, string(c.SchemaEnforcementMode), string(c.IndexingMode), c.DocumentsDirectory}},
			))
			return nil
		},
	}
}

func newCollectionCreateCmd() *cobra.Command {
	var (
		description  string
		documentsDir string
		enforcement  string
		indexing     string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			var desc *string
			if description != "" {
				desc = &description
			}
			c, err := e.CreateCollection(ctx, args[0], desc, documentsDir,
				model.EnforcementMode(enforcement), model.IndexingMode(indexing))
			if err != nil {
				return err
			}
			fmt.Println(renderTable(
				[]string{"id", "name", "enforcement", "indexing", "documents_directory"},
				[][]string{{c.ID, c.Name, string(c.SchemaEnforcementMode), string(c.IndexingMode), c.DocumentsDirectory}},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "collection description")
	cmd.Flags().StringVar(&documentsDir, "documents-dir", "./documents", "directory backing this collection's JSON blobs")
	cmd.Flags().StringVar(&enforcement, "enforcement", "", "schema enforcement mode (None|Strict|Flexible|Partial)")
	cmd.Flags().StringVar(&indexing, "indexing", "", "indexing mode (All|Selective|None)")
	return cmd
}
