package main

import (
	"log"

	"github.com/joho/godotenv"

	"docqa/cmd/docqa/commands"
)

func main() {
	_ = godotenv.Load(".env")
	if err := commands.NewRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
