// Command seed-jobs submits synthetic analytics jobs to a running engine
// for smoke testing and load generation.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sociometry/pulse/internal/domain/model"
)

const (
	defaultNumJobs = 1000
	defaultWorkers = 8
	defaultTimeout = 10 * time.Second
	defaultSeed    = 42
	runTimeout     = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numJobs = flag.Int("jobs", defaultNumJobs, "Number of jobs to generate and submit")
		workers = flag.Int("workers", defaultWorkers, "Number of concurrent submitters")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed    = flag.Int64("seed", defaultSeed, "Random seed for reproducible payloads")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	client := &http.Client{Timeout: *timeout}
	jobs := make(chan model.Job, *workers)

	var accepted, duplicate, rejected, failed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				switch code, err := submit(ctx, client, *baseURL, job); {
				case err != nil:
					failed.Add(1)
				case code == http.StatusAccepted:
					accepted.Add(1)
				case code == http.StatusOK:
					duplicate.Add(1)
				default:
					rejected.Add(1)
				}
			}
		}()
	}

	rng := rand.New(rand.NewSource(*seed))
	start := time.Now()
	for i := 0; i < *numJobs; i++ {
		jobs <- generateJob(rng, i)
	}
	close(jobs)
	wg.Wait()

	fmt.Printf("submitted %d jobs in %s: accepted=%d duplicate=%d rejected=%d failed=%d\n",
		*numJobs, time.Since(start).Round(time.Millisecond),
		accepted.Load(), duplicate.Load(), rejected.Load(), failed.Load())

	if failed.Load() > 0 {
		os.Exit(1)
	}
}

// submit posts a single job and returns the response status code.
func submit(ctx context.Context, client *http.Client, baseURL string, job model.Job) (int, error) {
	body, err := json.Marshal(map[string]any{
		"id":      job.ID,
		"type":    job.Type,
		"payload": job.Payload,
	})
	if err != nil {
		return 0, fmt.Errorf("encode job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post job: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// generateJob produces a random job of one of the supported types.
func generateJob(rng *rand.Rand, i int) model.Job {
	platforms := model.Platforms()
	platform := platforms[rng.Intn(len(platforms))]

	job := model.Job{ID: uuid.NewString()}
	switch i % 4 {
	case 0:
		job.Type = model.JobCollect
		job.Payload = model.JobPayload{
			Platform:      string(platform),
			CredentialRef: "seed-credentials",
			PostID:        fmt.Sprintf("post-%04d", rng.Intn(500)),
		}
	case 1:
		job.Type = model.JobAggregateDaily
		job.Payload = model.JobPayload{
			MetricsData:   generateRecords(rng, platform, 24),
			ReferenceDate: time.Now(),
		}
	case 2:
		job.Type = model.JobGenerateReport
		job.Payload = model.JobPayload{
			MetricsData:    generateRecords(rng, platform, 48),
			HistoricalData: generateRecords(rng, platform, 96),
			ReferenceDate:  time.Now(),
		}
	case 3:
		job.Type = model.JobDetectFatigue
		job.Payload = model.JobPayload{
			ContentID:  fmt.Sprintf("content-%03d", rng.Intn(100)),
			PlatformID: string(platform),
		}
	}
	return job
}

// generateRecords produces n synthetic metrics records spread across the
// last n hours.
func generateRecords(rng *rand.Rand, platform model.Platform, n int) []model.MetricsRecord {
	now := time.Now()
	records := make([]model.MetricsRecord, 0, n)
	for i := 0; i < n; i++ {
		views := int64(1000 + rng.Intn(50_000))
		records = append(records, model.MetricsRecord{
			Platform: platform,
			PostID:   fmt.Sprintf("post-%04d", rng.Intn(500)),
			Metrics: model.Metrics{
				Views:     views,
				Likes:     views / int64(10+rng.Intn(40)),
				Comments:  views / int64(50+rng.Intn(200)),
				Shares:    views / int64(100+rng.Intn(400)),
				Saves:     views / int64(100+rng.Intn(400)),
				Reactions: views / int64(10+rng.Intn(40)),
			},
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	return records
}
