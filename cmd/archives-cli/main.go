package main

import (
	"showroom-archives/cmd/archives-cli/cmd"
)

func main() {
	cmd.Execute()
}
