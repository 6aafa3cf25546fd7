package cmd

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var keygenOut string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an Ed25519 keypair for signing requests",
	Long: `keygen writes a new private key to the file given by --out (base64
encoded) and prints the matching public key to stdout. The public key is
what gets registered on a user via "iamctl user create".`,
	RunE: func(_ *cobra.Command, _ []string) error {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return err
		}
		if keygenOut == "" {
			return fmt.Errorf("--out is required")
		}
		encoded := base64.StdEncoding.EncodeToString(priv)
		if err := os.WriteFile(keygenOut, []byte(encoded+"\n"), 0600); err != nil {
			return err
		}
		fmt.Println(base64.StdEncoding.EncodeToString(pub))
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenOut, "out", "", "path to write the private key to")
}
