package main

import "whisperli/cmd"

func main() {
	cmd.Execute()
}
