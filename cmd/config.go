package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom/internal/ai"
	cfgpkg "github.com/KaramelBytes/tabloom/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TabLoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "api_key: %s\n", mask(c.APIKey))
		fmt.Fprintf(out, "provider: %s\n", c.Provider)
		model := c.Model
		if model == "" {
			model = ai.DefaultModel(c.Provider) + " (default)"
		}
		fmt.Fprintf(out, "model: %s\n", model)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", c.HTTPTimeoutSec)
		if c.Provider == ai.ProviderOllama {
			fmt.Fprintf(out, "ollama_host: %s\n", c.OllamaHost)
		}
		fmt.Fprintf(out, "upload_folder: %s\n", c.UploadFolder)
		fmt.Fprintf(out, "max_content_length: %d\n", c.MaxContentLength)
		fmt.Fprintf(out, "allowed_extensions: %s\n", strings.Join(c.AllowedExtensions, ","))
		fmt.Fprintf(out, "server_address: %s\n", c.ServerAddress)
		fmt.Fprintf(out, "batch_concurrency: %d\n", c.BatchConcurrency)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := setKey(c, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	positive := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return 0, fmt.Errorf("invalid positive int for %s: %v", key, val)
		}
		return i, nil
	}
	switch key {
	case "api_key":
		c.APIKey = val
	case "provider":
		p := strings.ToLower(strings.TrimSpace(val))
		if p == "local" {
			p = ai.ProviderOllama
		}
		switch p {
		case ai.ProviderGemini, ai.ProviderOpenRouter, ai.ProviderOllama:
			c.Provider = p
		default:
			return fmt.Errorf("invalid provider: %s (use %s)", val, strings.Join(ai.Providers(), ", "))
		}
	case "model":
		c.Model = val
	case "http_timeout_sec":
		i, err := positive()
		if err != nil {
			return err
		}
		c.HTTPTimeoutSec = i
	case "ollama_host":
		c.OllamaHost = val
	case "upload_folder":
		c.UploadFolder = val
	case "max_content_length":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid positive int for max_content_length: %v", val)
		}
		c.MaxContentLength = i
	case "allowed_extensions":
		var exts []string
		for _, e := range strings.Split(val, ",") {
			if e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), "."); e != "" {
				exts = append(exts, e)
			}
		}
		if len(exts) == 0 {
			return fmt.Errorf("allowed_extensions needs at least one extension")
		}
		c.AllowedExtensions = exts
	case "server_address":
		c.ServerAddress = val
	case "batch_concurrency":
		i, err := positive()
		if err != nil {
			return err
		}
		c.BatchConcurrency = i
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
