package poolcli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pooldex/internal/poold"
)

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var (
		field  string
		exact  bool
		limit  int
		offset int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Search(poold.SearchParams{
				Q:      strings.Join(args, " "),
				Field:  field,
				Exact:  exact,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d hit(s) of %d total\n", len(res.Hits), res.Total)
			for _, h := range res.Hits {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8.4f %s\n", h.Score, h.ID)
				for k, v := range h.Fields {
					fmt.Fprintf(cmd.OutOrStdout(), "         %s: %v\n", k, v)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "restrict the match to one field")
	cmd.Flags().BoolVar(&exact, "exact", false, "term query instead of analyzed match")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "max hits")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many hits")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result as JSON")
	return cmd
}
