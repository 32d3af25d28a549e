package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lattice-db/lattice/internal/ingest"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var (
		name   string
		labels []string
		tags   []string
	)
	cmd := &cobra.Command{
		Use:   "ingest <collection-id> <file.json>",
		Short: "Ingest a JSON document into a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			raw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}

			tagMap, err := parseTags(tags)
			if err != nil {
				return err
			}

			var namePtr *string
			if name != "" {
				namePtr = &name
			}

			doc, err := e.Ingest(ctx, ingest.Request{
				CollectionID: args[0],
				JSON:         raw,
				Name:         namePtr,
				Labels:       labels,
				Tags:         tagMap,
			})
			if err != nil {
				return err
			}
			fmt.Println(renderTable(
				[]string{"id", "schema_id", "content_length", "sha256_hash"},
				[][]string{{doc.ID, doc.SchemaID, fmt.Sprint(doc.ContentLength), doc.SHA256Hash}},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "optional document name, stored on the document")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "document-level label (repeatable)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "document-level tag as key=value (repeatable)")
	return cmd
}

func parseTags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --tag %q, expected key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
