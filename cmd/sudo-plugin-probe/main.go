package main

import "github.com/reglet-dev/sudo-plugin-sdk/internal/cli"

func main() {
	cli.Execute()
}
