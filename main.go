package main

import "lockbox/commands"

func main() {
	commands.Execute()
}
