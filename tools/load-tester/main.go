package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func main() {
	targetURL := flag.String("url", "http://localhost:8080/api/contacts", "Target URL for contact creation")
	apiKey := flag.String("api-key", "", "API key of the tenant under test")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 1000, "Requests per second limit")
	batchSize := flag.Int("batch", 10, "Contacts per request")
	flag.Parse()

	if *apiKey == "" {
		log.Fatal("-api-key is required, provision a tenant with tenantctl first")
	}

	log.Printf("Starting load test on %s", *targetURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d, Batch: %d", *concurrency, *duration, *rps, *batchSize)

	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 100) // Allow bursts up to 100

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
					limiter.Wait(ctx) // Wait for token from rate limiter

					var payload bytes.Buffer
					payload.WriteByte('[')
					for j := 0; j < *batchSize; j++ {
						if j > 0 {
							payload.WriteByte(',')
						}
						// Unique emails so nothing lands in the skipped partition.
						fmt.Fprintf(&payload, `{"name": "Load Contact %d-%d", "email": "%s@load.test", "company": "worker-%d"}`,
							workerID, j, uuid.NewString(), workerID)
					}
					payload.WriteByte(']')

					req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, &payload)
					if err != nil {
						continue // Should not happen
					}
					req.Header.Set("Content-Type", "application/json")
					req.Header.Set("X-API-Key", *apiKey)

					resp, err := client.Do(req)
					if err != nil {
						errorCount.Add(1)
						continue
					}

					if resp.StatusCode == http.StatusCreated {
						successCount.Add(1)
					} else {
						errorCount.Add(1)
					}
					resp.Body.Close()
				}
			}
		}(i)
	}

	wg.Wait()

	totalRequests := successCount.Load() + errorCount.Load()
	actualRPS := float64(totalRequests) / duration.Seconds()

	log.Println("Load test finished.")
	log.Printf("Total Requests: %d", totalRequests)
	log.Printf("Successful (201 Created): %d", successCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
}
