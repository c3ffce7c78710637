package main

import "photodedup/cmd"

func main() {
	cmd.Execute()
}
