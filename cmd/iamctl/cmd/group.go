package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var groupCreateName string

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		out, err := c.do("POST", "/groups/", nil, map[string]string{"name": groupCreateName})
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

var groupGetCmd = &cobra.Command{
	Use:   "get IDENT",
	Short: "Get a group by id or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		out, err := c.do("GET", "/groups/"+url.PathEscape(args[0])+"/", nil, nil)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		out, err := c.do("GET", "/groups/", nil, nil)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete IDENT",
	Short: "Delete a group by id or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if _, err := c.do("DELETE", "/groups/"+url.PathEscape(args[0])+"/", nil, nil); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupCreateName, "name", "", "name alias for the new group")
	groupCmd.AddCommand(groupCreateCmd, groupGetCmd, groupListCmd, groupDeleteCmd)
}
