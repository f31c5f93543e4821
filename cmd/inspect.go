package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hushfs/pkg/app/inspect"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [image]",
	Short: "Show the geometry and allocation state of a volume",
	Long: `Open a volume image under an exclusive lock and print its superblock,
region layout and inode and block usage.

Examples:
  hush inspect vault.img
  hush inspect vault.img -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newContext(cmd)
		response, err := inspect.Handle(ctx, &inspect.Request{ImagePath: args[0]})
		if err != nil {
			return err
		}
		return inspect.FormatOutput(ctx.Output(), response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
