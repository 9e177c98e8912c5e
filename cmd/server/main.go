// cmd/server/main.go
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/Ag1104/attendance-system/internal/cli"
)

func main() {
	_ = godotenv.Load()

	root := cli.NewRootCommand()
	// With no arguments the binary starts the server.
	if len(os.Args) < 2 {
		root.SetArgs([]string{"serve"})
	}
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
