package main

import (
	"os"

	"buyloop/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
