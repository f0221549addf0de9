package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imageflow/imagemeta/pkg/imagemeta/config"
	"github.com/imageflow/imagemeta/pkg/imagemeta/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	svc, err := cfg.BuildService()
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	lambda.Start(handler.UpdateTable(svc))
}
