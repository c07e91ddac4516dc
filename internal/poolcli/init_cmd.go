package poolcli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pooldex/internal/index"
)

// newInitCommand creates the index locally. The daemon holds the index root's
// lock while it runs, so init happens before the daemon starts (or fails with
// a lock error, which is the right answer).
func newInitCommand(opts *rootOptions) *cobra.Command {
	var (
		root       string
		name       string
		schemaPath string
		clear      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new index from a schema file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if root == "" {
				root = cfg.Index.Root
			}
			if name == "" {
				name = cfg.Index.Name
			}
			if schemaPath == "" {
				return fmt.Errorf("--schema is required")
			}

			schema, err := loadSchema(schemaPath)
			if err != nil {
				return err
			}

			idx, err := index.Create(root, name, schema, clear)
			if err != nil {
				return err
			}
			defer idx.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "created index %s at %s\n", idx.UUID(), root)
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "index root path (default from config)")
	cmd.Flags().StringVar(&name, "name", "", "index name within the root (default from config)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema file (json or yaml)")
	cmd.Flags().BoolVar(&clear, "clear", false, "replace an existing index under the same name")
	return cmd
}

func loadSchema(path string) (index.Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return index.Schema{}, err
	}
	var schema index.Schema
	if json.Valid(raw) {
		err = json.Unmarshal(raw, &schema)
	} else {
		err = yaml.Unmarshal(raw, &schema)
	}
	if err != nil {
		return index.Schema{}, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return schema, nil
}
