package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

var (
	policyCreateName     string
	policyCreateHostname string
	policyCreateRules    []string
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage policies",
}

// parseRule turns "effect:action:resource" (e.g. "allow:read:/users/*")
// into the wire rule shape.
func parseRule(s string) (map[string]string, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("rule %q must be effect:action:resource", s)
	}
	return map[string]string{"effect": parts[0], "action": parts[1], "resource": parts[2]}, nil
}

var policyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a policy",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rules := make([]map[string]string, 0, len(policyCreateRules))
		for _, r := range policyCreateRules {
			rule, err := parseRule(r)
			if err != nil {
				return err
			}
			rules = append(rules, rule)
		}
		body := map[string]any{
			"name":     policyCreateName,
			"hostname": policyCreateHostname,
			"rules":    rules,
		}
		out, err := c.do("POST", "/policies/", nil, body)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

var policyGetCmd = &cobra.Command{
	Use:   "get IDENT",
	Short: "Get a policy by id or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		out, err := c.do("GET", "/policies/"+url.PathEscape(args[0])+"/", nil, nil)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List policies",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		out, err := c.do("GET", "/policies/", nil, nil)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	},
}

var policyDeleteCmd = &cobra.Command{
	Use:   "delete IDENT",
	Short: "Delete a policy by id or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if _, err := c.do("DELETE", "/policies/"+url.PathEscape(args[0])+"/", nil, nil); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil
	},
}

var (
	attachUser  string
	attachGroup string
)

var policyAttachCmd = &cobra.Command{
	Use:   "attach IDENT",
	Short: "Attach a policy to a user (--user) or group (--group)",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return policyAttachment("POST", args[0])
	},
}

var policyDetachCmd = &cobra.Command{
	Use:   "detach IDENT",
	Short: "Detach a policy from a user (--user) or group (--group)",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return policyAttachment("DELETE", args[0])
	},
}

func policyAttachment(method, policyIdent string) error {
	if (attachUser == "") == (attachGroup == "") {
		return fmt.Errorf("exactly one of --user or --group is required")
	}
	c, err := newClient()
	if err != nil {
		return err
	}
	var path string
	if attachUser != "" {
		path = "/users/" + url.PathEscape(attachUser) + "/policies/" + url.PathEscape(policyIdent) + "/"
	} else {
		path = "/groups/" + url.PathEscape(attachGroup) + "/policies/" + url.PathEscape(policyIdent) + "/"
	}
	if _, err := c.do(method, path, nil, nil); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func init() {
	policyCreateCmd.Flags().StringVar(&policyCreateName, "name", "", "name alias for the new policy")
	policyCreateCmd.Flags().StringVar(&policyCreateHostname, "hostname", "", "hostname the policy applies to")
	policyCreateCmd.Flags().StringArrayVar(&policyCreateRules, "rule", nil, "effect:action:resource, repeatable")

	policyAttachCmd.Flags().StringVar(&attachUser, "user", "", "user id or email to attach the policy to")
	policyAttachCmd.Flags().StringVar(&attachGroup, "group", "", "group id or name to attach the policy to")
	policyDetachCmd.Flags().StringVar(&attachUser, "user", "", "user id or email to detach the policy from")
	policyDetachCmd.Flags().StringVar(&attachGroup, "group", "", "group id or name to detach the policy from")

	policyCmd.AddCommand(policyCreateCmd, policyGetCmd, policyListCmd, policyDeleteCmd, policyAttachCmd, policyDetachCmd)
}
