package main

import "github.com/easyplit/easyplit/internal/cli"

func main() {
	cli.Execute()
}
