package main

import (
	"github.com/tutils/tcopy/cmd"
)

func main() {
	cmd.Execute()
}
