package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// Polls the phonebook service until it answers on its health
// endpoint. Useful in scripts that start the service in the
// background before sending requests to it.
//
// Usage example on the command line:
// > PORT=8080 go run main.go
func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	url := fmt.Sprintf("http://localhost:%s/health", port)
	totalWaitTime := 0
	for {
		res, err := http.Get(url)
		if err == nil && res.StatusCode == http.StatusOK {
			fmt.Println("phonebook service is available")
			break
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds\n", totalWaitTime)
		time.Sleep(5 * time.Second)
	}
}
