package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hushfs/pkg/app"
	"github.com/deploymenttheory/go-hushfs/pkg/app/keygen"
)

var verifyKeyPath string

var verifyKeyCmd = &cobra.Command{
	Use:   "verify-key",
	Short: "Check that a password opens a private key",
	Long: `Prompt for the password of a private key, decrypt it and check that it
belongs to the public key stored beside it. Exits non-zero on a wrong
password, a tampered key file or a mismatched public key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newContext(cmd)
		response, err := keygen.HandleVerify(ctx, &keygen.Request{KeyPath: verifyKeyPath})
		if err != nil {
			return err
		}
		if !ctx.Quiet {
			if err := keygen.FormatVerifyOutput(ctx.Output(), response, ctx.OutputFormat); err != nil {
				return err
			}
		}
		if !response.Matches {
			return app.NewError(app.ErrCodeAuthentication, "private key does not match "+response.Files.Public, nil)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyKeyCmd)

	verifyKeyCmd.Flags().StringVarP(&verifyKeyPath, "path", "p", "", "private key path (default key_path from config)")
}
