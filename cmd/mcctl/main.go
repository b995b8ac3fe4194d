package main

import "github.com/aliexpressru/gomemcached-text/cmd/mcctl/cli"

func main() {
	cli.Execute()
}
