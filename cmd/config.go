package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configView is the effective configuration as printed by `hush config`
type configView struct {
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	KeyPath  string `json:"key_path" yaml:"key_path"`
	LogLevel string `json:"log_level" yaml:"log_level"`
	KDF      struct {
		Iterations   uint32 `json:"iterations" yaml:"iterations"`
		MemoryKiB    uint32 `json:"memory_kib" yaml:"memory_kib"`
		Parallelism  uint8  `json:"parallelism" yaml:"parallelism"`
		MaxMemoryKiB uint32 `json:"max_memory_kib" yaml:"max_memory_kib"`
	} `json:"kdf" yaml:"kdf"`
	Password struct {
		Mask     bool `json:"mask" yaml:"mask"`
		MinScore int  `json:"min_score" yaml:"min_score"`
	} `json:"password" yaml:"password"`
	Format struct {
		RootInode bool `json:"root_inode" yaml:"root_inode"`
	} `json:"format" yaml:"format"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after defaults, the config file and HUSH_*
environment variables are applied, e.g. HUSH_KDF_MEMORY_KIB=131072.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newContext(cmd)
		cfg := ctx.Settings()

		var view configView
		view.File = cfg.File
		view.KeyPath = cfg.KeyPath
		view.LogLevel = cfg.LogLevel
		view.KDF.Iterations = cfg.KDF.Iterations
		view.KDF.MemoryKiB = cfg.KDF.MemoryKiB
		view.KDF.Parallelism = cfg.KDF.Parallelism
		view.KDF.MaxMemoryKiB = cfg.KDF.MaxMemoryKiB
		view.Password.Mask = cfg.Password.Mask
		view.Password.MinScore = cfg.Password.MinScore
		view.Format.RootInode = cfg.Format.RootInode

		out := ctx.Output()
		switch ctx.OutputFormat {
		case "json":
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(view)
		default:
			if view.File == "" && ctx.OutputFormat == "table" {
				fmt.Fprintln(out, "# no config file found")
			}
			encoder := yaml.NewEncoder(out)
			defer encoder.Close()
			encoder.SetIndent(2)
			return encoder.Encode(view)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
