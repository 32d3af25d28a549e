package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lattice-db/lattice/internal/engine"
	"github.com/lattice-db/lattice/internal/model"
	"gopkg.in/yaml.v3"
)

// collectionManifest describes a collection and everything bolted onto
// it (field constraints, indexed fields, labels, tags) in one file, so a
// deployment can version its schema policy instead of scripting a
// sequence of CLI calls.
type collectionManifest struct {
	Name               string                    `yaml:"name"`
	Description        string                    `yaml:"description"`
	DocumentsDirectory string                    `yaml:"documents_directory"`
	Enforcement        model.EnforcementMode     `yaml:"enforcement"`
	Indexing           model.IndexingMode        `yaml:"indexing"`
	Labels             []string                  `yaml:"labels"`
	Tags               map[string]string         `yaml:"tags"`
	FieldConstraints   []fieldConstraintManifest `yaml:"field_constraints"`
	IndexedFields      []string                  `yaml:"indexed_fields"`
}

type fieldConstraintManifest struct {
	FieldPath        string        `yaml:"field_path"`
	DataType         model.DataType `yaml:"data_type"`
	Required         bool          `yaml:"required"`
	Nullable         bool          `yaml:"nullable"`
	RegexPattern     string        `yaml:"regex_pattern"`
	MinValue         *float64      `yaml:"min_value"`
	MaxValue         *float64      `yaml:"max_value"`
	MinLength        *int          `yaml:"min_length"`
	MaxLength        *int          `yaml:"max_length"`
	AllowedValues    []string      `yaml:"allowed_values"`
	ArrayElementType model.DataType `yaml:"array_element_type"`
}

func loadCollectionManifest(path string) (*collectionManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m collectionManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest %s: name is required", path)
	}
	return &m, nil
}

// applyCollectionManifest creates the collection the manifest describes
// and then layers on its field constraints, indexed fields, labels and
// tags, in that order, so Strict/Flexible/Partial enforcement has its
// constraints in place before the first document is ever ingested.
func applyCollectionManifest(ctx context.Context, e *engine.Engine, m *collectionManifest) (*model.Collection, error) {
	var desc *string
	if m.Description != "" {
		desc = &m.Description
	}
	documentsDir := m.DocumentsDirectory
	if documentsDir == "" {
		documentsDir = "./documents/" + m.Name
	}
	c, err := e.CreateCollection(ctx, m.Name, desc, documentsDir, m.Enforcement, m.Indexing)
	if err != nil {
		return nil, err
	}

	for _, fc := range m.FieldConstraints {
		constraint := &model.FieldConstraint{
			CollectionID:  c.ID,
			FieldPath:     fc.FieldPath,
			Required:      fc.Required,
			Nullable:      fc.Nullable,
			MinValue:      fc.MinValue,
			MaxValue:      fc.MaxValue,
			MinLength:     fc.MinLength,
			MaxLength:     fc.MaxLength,
			AllowedValues: fc.AllowedValues,
		}
		if fc.DataType != "" {
			dt := fc.DataType
			constraint.DataType = &dt
		}
		if fc.RegexPattern != "" {
			pattern := fc.RegexPattern
			constraint.RegexPattern = &pattern
		}
		if fc.ArrayElementType != "" {
			aet := fc.ArrayElementType
			constraint.ArrayElementType = &aet
		}
		if err := e.AddFieldConstraint(ctx, constraint); err != nil {
			return nil, fmt.Errorf("field constraint %q: %w", fc.FieldPath, err)
		}
	}

	for _, fieldPath := range m.IndexedFields {
		if err := e.AddIndexedField(ctx, c.ID, fieldPath); err != nil {
			return nil, fmt.Errorf("indexed field %q: %w", fieldPath, err)
		}
	}

	for _, label := range m.Labels {
		if err := e.AddCollectionLabel(ctx, c.ID, label); err != nil {
			return nil, fmt.Errorf("label %q: %w", label, err)
		}
	}

	for key, value := range m.Tags {
		if err := e.AddCollectionTag(ctx, c.ID, key, value); err != nil {
			return nil, fmt.Errorf("tag %q: %w", key, err)
		}
	}

	return c, nil
}
