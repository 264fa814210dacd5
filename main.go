package main

import "github.com/agentblame/agentblame/cmd"

func main() {
	cmd.Execute()
}
