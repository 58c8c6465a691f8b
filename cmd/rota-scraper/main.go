package main

import "github.com/pfrederiksen/rota-da-festa/internal/cli"

func main() {
	cli.Execute()
}
