package main

import "github.com/mtaylorio/iam-server/cmd/iamctl/cmd"

func main() {
	cmd.Execute()
}
