package main

import "github.com/pfrederiksen/datebook/internal/cli"

func main() {
	cli.Execute()
}
