package main

import "flowstudio/cmd"

func main() {
	cmd.Execute()
}
