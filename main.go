package main

import "smpctl/cmd"

func main() {
	cmd.Execute()
}
