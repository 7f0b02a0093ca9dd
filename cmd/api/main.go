package main

import (
	"log"
	"net/http"

	"docqa/internal/api"
	"docqa/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	srv, err := api.NewServer(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("docqa api listening on %s llm_providers=%q embed_providers=%q", cfg.APIAddr, cfg.LLMProviders, cfg.EmbedProviders)
	if err := http.ListenAndServe(cfg.APIAddr, srv.Routes()); err != nil {
		log.Fatal(err)
	}
}
