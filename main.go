package main

import "haracho/cmd"

func main() {
	cmd.Execute()
}
