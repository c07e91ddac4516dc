package poolcli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index and pool status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			st, err := c.Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "index:      %s\n", st.Index)
			if st.Name != "" {
				fmt.Fprintf(out, "name:       %s\n", st.Name)
			}
			fmt.Fprintf(out, "uuid:       %s\n", st.UUID)
			fmt.Fprintf(out, "docs:       %d\n", st.Docs)
			fmt.Fprintf(out, "generation: %d\n", st.Generation)
			fmt.Fprintf(out, "pool:       %d idle / %d cap\n", st.PoolIdle, st.PoolCap)
			return nil
		},
	}
}
