package main

import (
	"os"
)

func main() {
	err := rootCmd.Execute()
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}
