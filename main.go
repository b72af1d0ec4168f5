package main

import "dispatcher/cmd"

func main() {
	cmd.Run()
}
