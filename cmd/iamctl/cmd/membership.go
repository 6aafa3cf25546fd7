package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var membershipCmd = &cobra.Command{
	Use:   "membership",
	Short: "Manage group memberships",
}

var membershipCreateCmd = &cobra.Command{
	Use:   "create USER GROUP",
	Short: "Add a user to a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		path := "/memberships/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1]) + "/"
		if _, err := c.do("POST", path, nil, nil); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

var membershipDeleteCmd = &cobra.Command{
	Use:   "delete USER GROUP",
	Short: "Remove a user from a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		path := "/memberships/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1]) + "/"
		if _, err := c.do("DELETE", path, nil, nil); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

func init() {
	membershipCmd.AddCommand(membershipCreateCmd, membershipDeleteCmd)
}
