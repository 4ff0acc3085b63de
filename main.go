package main

import "pim-sync/cmd"

func main() {
	cmd.Execute()
}
