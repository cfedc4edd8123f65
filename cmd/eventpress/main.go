package main

import "github.com/nfrund/eventpress/cmd/eventpress/cmd"

func main() {
	cmd.Execute()
}
