package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-sky-ratio/pkg/catalog"
	"github.com/df07/go-sky-ratio/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenes := flag.String("scenes", catalog.DefaultDir, "Directory of scene scripts")
	flag.Parse()

	// Create and start web server
	webServer := server.NewServer(*port, catalog.New(*scenes))

	log.Printf("Sky Ratio Web Server")
	log.Printf("Visit http://localhost:%d/api/scenes to list scenes", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
