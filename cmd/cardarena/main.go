package main

import "github.com/darkkD11/CardArena/internal/cli"

func main() {
	cli.Execute()
}
