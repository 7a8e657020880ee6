package main

import "github.com/nfrund/pairchat/cmd/pairchat-cli/cmd"

func main() {
	cmd.Execute()
}
