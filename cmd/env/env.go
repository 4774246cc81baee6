package env

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github/hwsign/device/internal/config"
)

// New returns the env subcommand, printing the resolved configuration
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the resolved configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			out, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
