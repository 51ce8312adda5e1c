// Benchmark tool for load-testing the riskd scoring API.
//
// Usage:
//   go run cmd/benchmark/main.go -url http://localhost:8080 -count 10000
//
// This tool:
//   1. Generates synthetic customer feature vectors across risk profiles
//   2. Sends each vector to riskd for scoring
//   3. Verifies the returned score against a local computation
//   4. Reports throughput, latency, and the score category distribution
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trustvault/riskd/internal/domain"
	"github.com/trustvault/riskd/internal/scoring"
)

// ScoreRequest is the riskd API request format.
type ScoreRequest struct {
	CustomerID string            `json:"customerId"`
	Features   domain.FeatureSet `json:"features"`
}

// ScoreResponse is the riskd API response format.
type ScoreResponse struct {
	Success    bool                    `json:"success"`
	StatusCode int                     `json:"statusCode"`
	Data       *domain.RiskScoreResult `json:"data"`
	Error      string                  `json:"error"`
}

// Metrics tracks benchmark results.
type Metrics struct {
	TotalProcessed int64
	TotalErrors    int64
	Mismatches     int64

	LowCount      int64
	MediumCount   int64
	HighCount     int64
	CriticalCount int64

	ProcessingTimeMs int64
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "riskd base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	count := flag.Int("count", 10000, "Number of score requests to send")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	seed := flag.Int64("seed", 42, "Random seed for feature generation")
	verbose := flag.Bool("verbose", false, "Print each score result")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║            RISKD BENCHMARK - Scoring Throughput               ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nriskd URL:  %s\n", *baseURL)
	fmt.Printf("Tenant ID:  %s\n", *tenantID)
	fmt.Printf("Requests:   %d\n", *count)
	fmt.Printf("Workers:    %d\n", *workers)
	fmt.Printf("Seed:       %d\n", *seed)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: riskd not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure riskd is running:")
		fmt.Println("  go run cmd/riskd/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ riskd is healthy")

	fmt.Printf("\nGenerating %d synthetic feature vectors...\n", *count)
	requests := generateRequests(*count, *seed)
	fmt.Printf("✓ Generated %d requests\n", len(requests))

	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(requests, *baseURL, *tenantID, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// generateRequests produces feature vectors spanning healthy to distressed
// profiles. Deterministic for a given seed so runs are comparable.
func generateRequests(count int, seed int64) []ScoreRequest {
	rng := rand.New(rand.NewSource(seed))
	requests := make([]ScoreRequest, 0, count)

	for i := 0; i < count; i++ {
		// stress in [0,1) shifts the whole profile toward distress
		stress := rng.Float64()

		jitter := func(base float64) float64 {
			v := base*stress + rng.Float64()*0.2
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			return v
		}

		features := domain.FeatureSet{
			PTI:                      jitter(0.7),
			DTI:                      jitter(0.8),
			SavingsBufferRatio:       (1 - stress) * 5,
			LoanExposureRatio:        jitter(0.9),
			PaymentDelayRatio:        jitter(0.8),
			SpendingSpikeIndex:       jitter(0.7),
			CreditUtilizationRatio:   jitter(0.95),
			RegionalUnemploymentRisk: jitter(0.6),
			InflationStressIndex:     jitter(0.6),
			SectorRiskScore:          jitter(0.8),
			MissedEMILast3M:          int(stress * 3),
			SalaryDelayDays:          int(stress * 20),
			SavingsChangePct:         -stress * 80,
			CreditScore:              900 - int(stress*500),
		}

		requests = append(requests, ScoreRequest{
			CustomerID: fmt.Sprintf("BENCH%06d", i),
			Features:   features,
		})
	}

	return requests
}

func runBenchmark(requests []ScoreRequest, baseURL, tenantID string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan ScoreRequest, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for req := range work {
				start := time.Now()
				result, err := scoreRequest(client, baseURL, tenantID, req)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", req.CustomerID, err)
					}
					continue
				}

				// Verify against a local computation of the same vector.
				expected := scoring.ComputeRiskScore(req.Features, domain.DefaultThresholds())
				if result.Data.Score != expected.Score {
					atomic.AddInt64(&metrics.Mismatches, 1)
				}

				switch result.Data.Category {
				case domain.CategoryLow:
					atomic.AddInt64(&metrics.LowCount, 1)
				case domain.CategoryMedium:
					atomic.AddInt64(&metrics.MediumCount, 1)
				case domain.CategoryHigh:
					atomic.AddInt64(&metrics.HighCount, 1)
				case domain.CategoryCritical:
					atomic.AddInt64(&metrics.CriticalCount, 1)
				}

				if verbose {
					fmt.Printf("%s | Score: %3d | Category: %-8s | %d ms\n",
						req.CustomerID,
						result.Data.Score,
						result.Data.Category,
						elapsed,
					)
				}
			}
		}()
	}

	for _, req := range requests {
		work <- req
	}
	close(work)

	wg.Wait()

	return metrics
}

func scoreRequest(client *http.Client, baseURL, tenantID string, req ScoreRequest) (*ScoreResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/risk-score", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, fmt.Errorf("missing data in response")
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 RESULTS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)
	fmt.Printf("   Score Mismatches: %d\n", m.Mismatches)

	scored := m.LowCount + m.MediumCount + m.HighCount + m.CriticalCount
	fmt.Printf("\n📈 CATEGORY DISTRIBUTION\n")
	if scored > 0 {
		fmt.Printf("   Low:       %8d (%.2f%%)\n", m.LowCount, 100*float64(m.LowCount)/float64(scored))
		fmt.Printf("   Medium:    %8d (%.2f%%)\n", m.MediumCount, 100*float64(m.MediumCount)/float64(scored))
		fmt.Printf("   High:      %8d (%.2f%%)\n", m.HighCount, 100*float64(m.HighCount)/float64(scored))
		fmt.Printf("   Critical:  %8d (%.2f%%)\n", m.CriticalCount, 100*float64(m.CriticalCount)/float64(scored))
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		rps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f req/sec\n", rps)
	}

	fmt.Printf("\n💡 INTERPRETATION\n")
	if m.Mismatches == 0 && m.TotalErrors == 0 {
		fmt.Println("   ✅ All scores matched the local computation")
	} else if m.Mismatches > 0 {
		fmt.Println("   ❌ Score mismatches found - server and local scorer disagree")
	}
	if m.TotalErrors > 0 {
		fmt.Println("   ⚠️  Some requests failed - check server logs")
	}

	fmt.Println()
}
