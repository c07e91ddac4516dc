package poolcli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pooldex/internal/poold"
)

func newIngestCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Control the drop-directory ingester",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start <dir>",
		Short: "Start ingesting *.json files from a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()
			st, err := c.IngestStart(args[0])
			if err != nil {
				return err
			}
			printIngest(cmd, st)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the ingester",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()
			st, err := c.IngestStop()
			if err != nil {
				return err
			}
			printIngest(cmd, st)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show ingester status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()
			st, err := c.IngestStatus()
			if err != nil {
				return err
			}
			printIngest(cmd, st)
			return nil
		},
	})

	return cmd
}

func printIngest(cmd *cobra.Command, st poold.IngestStatusResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running:   %v\n", st.Running)
	if st.Dir != "" {
		fmt.Fprintf(out, "dir:       %s\n", st.Dir)
	}
	fmt.Fprintf(out, "processed: %d\n", st.Processed)
	fmt.Fprintf(out, "failed:    %d\n", st.Failed)
}
