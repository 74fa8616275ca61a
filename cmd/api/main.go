package main

import (
	"context"
	"log"

	"github.com/parcelworks/rateshop/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("api exited: %v", err)
	}
}
