package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hushfs/pkg/app/keygen"
)

var (
	keyPath  string
	keyForce bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a password protected key pair",
	Long: `Generate a Curve25519 key pair. The private key is encrypted with a key
derived from a password (Argon2id) and written next to its public key and
salt:

  <path>       private key (SODIUM PRIVATE KEY)
  <path>.pub   public key  (SODIUM PUBLIC KEY)
  <path>.salt  salt        (SODIUM SALT)

Existing key files are never overwritten.

Examples:
  # Generate the default key (~/.hush/hush.key)
  hush keygen

  # Generate a key for a specific volume
  hush keygen -p ~/keys/backup.key`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newContext(cmd)
		response, err := keygen.Handle(ctx, &keygen.Request{KeyPath: keyPath, Force: keyForce})
		if err != nil {
			return err
		}
		if ctx.Quiet {
			return nil
		}
		return keygen.FormatOutput(ctx.Output(), response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVarP(&keyPath, "path", "p", "", "private key path (default key_path from config)")
	keygenCmd.Flags().BoolVar(&keyForce, "force", false, "accept a weak password without warning")
}
