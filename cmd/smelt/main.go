package main

import "github.com/smeltbuild/smelt/cmd/smelt/internal"

func main() {
	internal.Execute()
}
