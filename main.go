package main

import "github.com/KaramelBytes/concentra-cli/cmd"

func main() {
	cmd.Execute()
}
