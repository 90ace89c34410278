// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes every snapshot topic with its identifiers to path.
func (c *Catalog) ExportYAML(ctx context.Context, path string) error {
	rows, err := c.Topics(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every snapshot topic with its identifiers to path.
func (c *Catalog) ExportJSON(ctx context.Context, path string) error {
	rows, err := c.Topics(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
