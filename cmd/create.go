package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hushfs/pkg/app/create"
)

var (
	createKeyPath string
	createSize    string
	createNoRoot  bool
)

var createCmd = &cobra.Command{
	Use:   "create [image]",
	Short: "Create and format a new volume image",
	Long: `Create a new volume image of the given size and write its superblock,
bitmaps, inode table and root directory inode. The image must not exist and
the public key of the volume key (<key>.pub) must be readable.

Sizes are bytes with an optional k, m or g suffix (powers of 1000); use
KiB, MiB or GiB for powers of 1024.

Examples:
  # Create a 20 MB volume for the default key
  hush create -s 20m vault.img

  # Create a 1 GiB volume for a specific key
  hush create -k ~/keys/backup.key -s 1GiB backup.img`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newContext(cmd)
		response, err := create.Handle(ctx, &create.Request{
			ImagePath:   args[0],
			Size:        createSize,
			KeyPath:     createKeyPath,
			NoRootInode: createNoRoot,
		})
		if err != nil {
			return err
		}
		if ctx.Quiet {
			return nil
		}
		return create.FormatOutput(ctx.Output(), response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVarP(&createKeyPath, "key", "k", "", "private key path (default key_path from config)")
	createCmd.Flags().StringVarP(&createSize, "size", "s", "", "volume size (e.g. 1048576, 20m, 1g, 64MiB)")
	createCmd.Flags().BoolVar(&createNoRoot, "no-root-inode", false, "do not write the root directory inode")
	_ = createCmd.MarkFlagRequired("size")
}
