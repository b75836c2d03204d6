package main

import "cardwatch/internal/cli"

func main() {
	cli.Execute()
}
