package main

import "github.com/Prapti-044/simple-optparser/cmd"

func main() {
	cmd.Execute()
}
