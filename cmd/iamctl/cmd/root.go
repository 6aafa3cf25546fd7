// Package cmd implements iamctl, a thin administrative client for the IAM
// server. It speaks the same external wire protocol any other HTTP client
// would: it does not import the server's internal packages to build
// requests, only to sign them the same way the server verifies them.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagHost    string
	flagPrefix  string
	flagUserID  string
	flagKeyFile string
	flagTLS     bool
)

var rootCmd = &cobra.Command{
	Use:   "iamctl",
	Short: "Administrative client for the IAM core service",
	Long: `iamctl creates, inspects, and deletes users, groups, policies, and
sessions against an IAM server over its HTTP API, signing every request
with a local Ed25519 key.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "localhost:8443", "IAM server host:port")
	rootCmd.PersistentFlags().StringVar(&flagPrefix, "prefix", "IAM", "header/env-var prefix the server is configured with")
	rootCmd.PersistentFlags().StringVar(&flagUserID, "user", "", "caller's user id or email (required for signed requests)")
	rootCmd.PersistentFlags().StringVar(&flagKeyFile, "key", "", "path to the caller's Ed25519 private key (required for signed requests)")
	rootCmd.PersistentFlags().BoolVar(&flagTLS, "tls", true, "use https when talking to the server")

	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(membershipCmd)
	rootCmd.AddCommand(sessionCmd)
}
