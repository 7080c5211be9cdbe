package cmd

import (
	"fmt"

	"haracho/pkg/config"
	"haracho/pkg/service"
	"haracho/pkg/services"

	"github.com/spf13/cobra"
)

var servicesPrefix string

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the bundled services and their usages",
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := servicesPrefix
		if prefix == "" {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			prefix = cfg.Bot.Prefix
		}

		var builtin []*service.Descriptor
		builtin = services.Builtin(prefix, func() []*service.Descriptor { return builtin })

		fmt.Fprintln(cmd.OutOrStdout(), services.RenderHelp(prefix, builtin))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
	servicesCmd.Flags().StringVar(&servicesPrefix, "prefix", "", "command prefix used in usages (defaults to config)")
}
