package main

import "github.com/timvw/dashgen/cmd"

func main() {
	cmd.Execute()
}
