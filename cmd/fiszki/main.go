package main

import "github.com/conorfennell/fiszki/internal/cli"

func main() {
	cli.Execute()
}
