package main

import (
	"log"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
