package main

import "flymake/cmd"

func main() {
	cmd.Execute()
}
