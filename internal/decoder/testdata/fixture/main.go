package main

import (
	"fmt"
	"os"
)

//go:noinline
func leafHelper(i int) int { return i*3 + 1 }

//go:noinline
func loopingHelper(n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += leafHelper(i)
	}
	return sum
}

func main() {
	fmt.Println(loopingHelper(len(os.Args) + 2))
}
