package cli

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/folio/internal/admin"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/model"
)

func newUploadCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload an image and print its permanent URL",
		Long: `Upload an image to the configured image host right away.

The printed URL can be set on any record with --set imageUrl=<url>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newToaster(cmd.ErrOrStderr())

			// A bare form: the stager only needs somewhere to put the URL.
			form := admin.NewForm(&content.Schema{}, nil)
			stager := admin.NewImageStager(form, env.maxUploadBytes())

			img, err := stager.SelectPath(args[0])
			if err != nil {
				return err
			}
			t.info("Uploading %s (%s, %d bytes)", img.Filename, img.ContentType, len(img.Data))

			location, err := stager.UploadNow(cmd.Context(), env.uploader())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}
}

func newWatchCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [resource]",
		Short: "Print change events as they happen",
		Long: `Stream change events from the server until interrupted.

Without a resource every kind is watched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind model.Kind
			if len(args) == 1 {
				schema, ok := content.Lookup(model.Kind(args[0]))
				if !ok {
					return fmt.Errorf("unknown resource %q", args[0])
				}
				kind = schema.Kind
			}

			t := newToaster(cmd.ErrOrStderr())
			t.info("Watching %s", watchTarget(kind))

			out := cmd.OutOrStdout()
			return env.apiClient().Events(cmd.Context(), kind, func(e model.ChangeEvent) {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", e.At.Local().Format(time.DateTime), e.Kind, e.Op, e.ID)
			})
		},
	}
}

func watchTarget(kind model.Kind) string {
	if kind == "" {
		return "all resources"
	}
	return string(kind)
}

func newLoginCmd(env *Env) *cobra.Command {
	var keyPath string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign the server's challenge and store a session token",
		Long: `Fetch a challenge from the server, sign it with an Ed25519 private key and
store the issued session token in the configured token file (admin.token_file).`,
		Example: `  folio login --key privkey.pem`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadPrivateKey(keyPath)
			if err != nil {
				return fmt.Errorf("error loading private key: %w", err)
			}

			session, err := env.apiClient().Login(cmd.Context(), key)
			if err != nil {
				return err
			}

			path := env.Config.Admin.TokenFile
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o700); err != nil {
					return err
				}
			}
			if err := os.WriteFile(path, []byte(session.Token+"\n"), 0o600); err != nil {
				return fmt.Errorf("error writing token file: %w", err)
			}

			t := newToaster(cmd.ErrOrStderr())
			t.Notify(admin.Notification{
				Level:   admin.LevelSuccess,
				Message: fmt.Sprintf("Logged in until %s", session.ExpiresAt.Local().Format(time.DateTime)),
			})
			t.info("Token saved to %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "privkey.pem", "PKCS#8 PEM file holding the Ed25519 private key")
	return cmd
}

func loadPrivateKey(filename string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	edKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("not an Ed25519 private key")
	}
	return edKey, nil
}
