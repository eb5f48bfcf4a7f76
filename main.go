package main

import "github.com/agentic-research/sbtree/cmd"

func main() {
	cmd.Execute()
}
