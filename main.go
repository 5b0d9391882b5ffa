package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ooga-booga-go/cmd"
)

func main() {
	// A .env file is optional; variables may come from the shell instead
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
