package poolcli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pooldex/internal/poold"
)

func newPutCommand(opts *rootOptions) *cobra.Command {
	var (
		file   string
		commit bool
	)

	cmd := &cobra.Command{
		Use:   "put [json...]",
		Short: "Index documents from a file or inline JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := collectDocs(file, args)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				return fmt.Errorf("no documents given; use --file or inline JSON")
			}

			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Put(poold.PutParams{Docs: docs, Commit: commit})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d document(s), committed=%v\n", res.Count, res.Committed)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "file with a document object or array")
	cmd.Flags().BoolVar(&commit, "commit", true, "commit before returning")
	return cmd
}

func newDelCommand(opts *rootOptions) *cobra.Command {
	var commit bool

	cmd := &cobra.Command{
		Use:   "del <id>...",
		Short: "Delete documents by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Delete(poold.DeleteParams{IDs: args, Commit: commit})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d document(s), committed=%v\n", res.Count, res.Committed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", true, "commit before returning")
	return cmd
}

func collectDocs(file string, args []string) ([]poold.Doc, error) {
	var docs []poold.Doc
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		parsed, err := parseDocs(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		docs = append(docs, parsed...)
	}
	for _, arg := range args {
		parsed, err := parseDocs([]byte(arg))
		if err != nil {
			return nil, err
		}
		docs = append(docs, parsed...)
	}
	return docs, nil
}

func parseDocs(raw []byte) ([]poold.Doc, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var docs []poold.Doc
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}
	var doc poold.Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return []poold.Doc{doc}, nil
}
