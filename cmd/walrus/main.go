// Command walrus is a terminal client for the Walrus onchain agent.
package main

import "github.com/diogo/walrus/internal/commands"

func main() {
	commands.Execute()
}
