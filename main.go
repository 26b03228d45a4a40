package main

import "github.com/youxinddd/dappctl/cmd"

func main() {
	cmd.Execute()
}
