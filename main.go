package main

import "github.com/ruimo/klavier-core-sub000/cmd"

func main() {
	cmd.Execute()
}
