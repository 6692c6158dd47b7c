package main

import "github.com/mcoot/moonfall/internal/cli"

func main() {
	cli.Execute()
}
