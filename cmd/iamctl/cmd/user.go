package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	userCreateEmail     string
	userCreatePublicKey string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		body := map[string]any{
			"email": userCreateEmail,
			"public_keys": []map[string]string{
				{"key": userCreatePublicKey},
			},
		}
		out, err := c.do("POST", "/users/", nil, body)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get IDENT",
	Short: "Get a user by id or email",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		out, err := c.do("GET", "/users/"+url.PathEscape(args[0])+"/", nil, nil)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		out, err := c.do("GET", "/users/", nil, nil)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete IDENT",
	Short: "Delete a user by id or email",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if _, err := c.do("DELETE", "/users/"+url.PathEscape(args[0])+"/", nil, nil); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userCreateEmail, "email", "", "email alias for the new user")
	userCreateCmd.Flags().StringVar(&userCreatePublicKey, "public-key", "", "base64 Ed25519 public key to register")

	userCmd.AddCommand(userCreateCmd, userGetCmd, userListCmd, userDeleteCmd)
}
