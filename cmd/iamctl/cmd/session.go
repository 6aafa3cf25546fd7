package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
}

// sessionCreateCmd implements the shell-variable output contract: on
// success it prints shell `export` lines for the new session's id and
// token, meant to be eval'd by the caller's shell.
var sessionCreateCmd = &cobra.Command{
	Use:   "create IDENT",
	Short: "Open a new session for a user and print export lines for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		out, err := c.do("POST", "/users/"+url.PathEscape(args[0])+"/sessions/", nil, nil)
		if err != nil {
			return err
		}
		id, _ := out["id"].(string)
		token, _ := out["token"].(string)
		fmt.Printf("export %s_SESSION_ID=%s\n", flagPrefix, id)
		fmt.Printf("export %s_SESSION_TOKEN=%s\n", flagPrefix, token)
		return nil
	},
}

// sessionDeleteCmd implements the other half of the shell-variable
// contract: on success it prints `unset` lines for the session variables.
var sessionDeleteCmd = &cobra.Command{
	Use:   "delete IDENT SID",
	Short: "Revoke a session and print unset lines for it",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		path := "/users/" + url.PathEscape(args[0]) + "/sessions/" + url.PathEscape(args[1])
		if _, err := c.do("DELETE", path, nil, nil); err != nil {
			return err
		}
		fmt.Printf("unset %s_SESSION_ID\n", flagPrefix)
		fmt.Printf("unset %s_SESSION_TOKEN\n", flagPrefix)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list IDENT",
	Short: "List a user's sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		out, err := c.do("GET", "/users/"+url.PathEscape(args[0])+"/sessions/", nil, nil)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

var sessionGetCmd = &cobra.Command{
	Use:   "get IDENT SID",
	Short: "Get one of a user's sessions",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		path := "/users/" + url.PathEscape(args[0]) + "/sessions/" + url.PathEscape(args[1])
		out, err := c.do("GET", path, nil, nil)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionCreateCmd, sessionDeleteCmd, sessionListCmd, sessionGetCmd)
}
