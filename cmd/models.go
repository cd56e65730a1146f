package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog used to size insight prompts",
	Example: `  tabloom models show
  tabloom models show --provider ollama`,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show known models and the default per provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := strings.ToLower(flagProvider)
		cat := ai.Catalog(provider)
		if len(cat) == 0 {
			return fmt.Errorf("no models for provider %q (known: %v)", provider, ai.Providers())
		}
		defaults := map[string]string{}
		for _, p := range ai.Providers() {
			if provider == "" || p == provider {
				defaults[p] = ai.DefaultModel(p)
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		// encoding/json sorts map keys, so output is deterministic
		return enc.Encode(map[string]any{"defaults": defaults, "models": cat})
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
}
