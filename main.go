package main

import "github.com/derickschaefer/kitadash/cmd"

func main() {
	cmd.Execute()
}
