package main

import "github.com/saitejashb/context-translation/cmd"

func main() {
	cmd.Execute()
}
