package main

import "ragify/cmd"

func main() {
	cmd.Execute()
}
