package main

import "github.com/samhoang/rz/cmd"

func main() {
	cmd.Execute()
}
