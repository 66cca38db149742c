package main

import "github.com/gaurav-prasanna/govcrawl/cmd"

func main() {
	cmd.Execute()
}
