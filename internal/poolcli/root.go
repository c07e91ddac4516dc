// Package poolcli implements the poolctl command line client.
package poolcli

import (
	"github.com/spf13/cobra"

	"pooldex/internal/config"
	"pooldex/internal/poold"
	"pooldex/internal/version"
)

type rootOptions struct {
	Addr       string
	ConfigPath string
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "poolctl",
		Short:         "Manage and query a pooldex index daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.Version = version.String()

	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", config.DefaultListen, "daemon address (tcp)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file path")

	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newPutCommand(opts))
	cmd.AddCommand(newDelCommand(opts))
	cmd.AddCommand(newSearchCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newIngestCommand(opts))
	return cmd
}

func (o *rootOptions) dial() (*poold.Client, error) {
	return poold.Dial(o.Addr)
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	return config.Load(o.ConfigPath)
}
