package main

import "github.com/vietddude/realitymod/internal/cli"

func main() {
	cli.Execute()
}
