// Command demobackend starts a stand-in classification backend for local
// demos. Usage: go run ./cmd/demobackend [port]
// Default port: 5000
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"phishgate/internal/demobackend"
)

func main() {
	cfg := demobackend.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("Demo classification backend")
	fmt.Println("  GET  /check?url=...   classify a URL")
	fmt.Println("  GET  /health          liveness probe")
	fmt.Println("  POST /demo/script     pin a verdict for a host")
	fmt.Println()
	fmt.Println("Hosts containing \"phish\" are flagged by default.")
	fmt.Println()

	backend := demobackend.NewDemoBackend(cfg)
	if err := backend.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
