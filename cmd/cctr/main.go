package main

import "github.com/cctr-run/cctr/cmd/cctr/internal"

func main() {
	internal.Execute()
}
