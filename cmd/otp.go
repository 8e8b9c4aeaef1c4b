package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vibeauth/internal/config"
	"vibeauth/internal/totp"
)

func newOTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Authenticator code utilities",
	}
	cmd.AddCommand(newOTPSecretCmd(), newOTPCodeCmd(), newOTPQRCmd())
	return cmd
}

func newOTPSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a new secret and print its provisioning URI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			issuer, _ := cmd.Flags().GetString("issuer")
			if issuer == "" {
				issuer = config.Load().Auth.Issuer
			}
			secret, err := totp.New().GenerateSecret(totp.DefaultSecretSize)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			if email != "" {
				fmt.Fprintln(cmd.OutOrStdout(), totp.ProvisioningURI(email, issuer, secret))
			}
			return nil
		},
	}
	cmd.Flags().String("email", "", "Account label for the provisioning URI")
	cmd.Flags().String("issuer", "", "Issuer shown by authenticator apps (defaults to AUTH_ISSUER)")
	return cmd
}

func newOTPCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Print the current code for a secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			if secret == "" {
				return errors.New("--secret is required")
			}
			code, err := totp.New().CodeNow(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
	cmd.Flags().String("secret", "", "Base32 secret")
	return cmd
}

func newOTPQRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr <uri>",
		Short: "Render a provisioning URI as a PNG QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			size, _ := cmd.Flags().GetInt("size")
			png, err := totp.QRCode(args[0], size)
			if err != nil {
				return err
			}
			return os.WriteFile(out, png, 0o644)
		},
	}
	cmd.Flags().StringP("out", "o", "qr.png", "Output file")
	cmd.Flags().Int("size", 256, "Image size in pixels")
	return cmd
}
