package main

import "github.com/twiced-technology-gmbh/tasktracker/cmd"

func main() {
	cmd.Execute()
}
