package main

import "github.com/mcoot/partyquiz/internal/cli"

func main() {
	cli.Execute()
}
