package main

import "github.com/bryanwahyu/automaton-diag/internal/cli"

func main() {
	cli.Execute()
}
