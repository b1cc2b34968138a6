// Package pkgfetcher downloads release assets with a pool of workers.
// Every file lands through a temp-file rename, so a crash mid-download
// never leaves a corrupt package looking present.
package pkgfetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/logger"
)

// ErrRetriesExhausted marks a download that failed every allowed attempt.
var ErrRetriesExhausted = errors.New("download retries exhausted")

// Backoff decides how long to wait before retry attempt n (1-based).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// ExponentialBackoff doubles the base delay per attempt.
type ExponentialBackoff struct {
	Base time.Duration
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	d := b.Base
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// NoBackoff retries immediately. Tests use it.
type NoBackoff struct{}

func (NoBackoff) Delay(int) time.Duration { return 0 }

// Job is one file to download.
type Job struct {
	URL      string
	DestPath string
}

// Result reports one finished job. SHA256 and Size are set on success.
type Result struct {
	Job    Job
	SHA256 string
	Size   int64
	Err    error
}

// Fetcher downloads jobs with bounded retries per job.
type Fetcher struct {
	Client   *http.Client
	Token    string
	Workers  int
	Attempts int
	Backoff  Backoff
	Quiet    bool
}

// FetchAll downloads all jobs and returns one Result per job, in job order.
// Individual failures do not stop the batch. It shows a single progress bar
// tracking files completed vs total.
func (f *Fetcher) FetchAll(jobs []Job) []Result {
	log := logger.Logger()

	workers := f.Workers
	if workers < 1 {
		workers = 1
	}
	attempts := f.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := f.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff{Base: time.Second}
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	total := len(jobs)
	results := make([]Result, total)
	indexes := make(chan int, total)
	var wg sync.WaitGroup

	var bar *progressbar.ProgressBar
	if !f.Quiet {
		bar = progressbar.NewOptions(total,
			progressbar.OptionFullWidth(),
			progressbar.OptionShowDescriptionAtLineEnd(),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				job := jobs[idx]
				if bar != nil {
					bar.Describe(fmt.Sprintf("downloading %s", filepath.Base(job.DestPath)))
				}

				sha, size, err := f.fetchOne(client, job, attempts, backoff)
				if err != nil {
					log.Errorf("downloading %s failed: %v", job.URL, err)
				}
				results[idx] = Result{Job: job, SHA256: sha, Size: size, Err: err}
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)

	wg.Wait()
	if bar != nil {
		bar.Finish()
	}
	return results
}

// fetchOne runs the bounded attempt loop for a single job.
func (f *Fetcher) fetchOne(client *http.Client, job Job, attempts int, backoff Backoff) (string, int64, error) {
	log := logger.Logger()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		sha, size, err := f.downloadAtomic(client, job)
		if err == nil {
			return sha, size, nil
		}
		lastErr = err
		if attempt < attempts {
			delay := backoff.Delay(attempt)
			log.Warnf("attempt %d/%d for %s failed (%v), retrying in %s", attempt, attempts, job.URL, err, delay)
			time.Sleep(delay)
		}
	}
	return "", 0, fmt.Errorf("%w: %d attempt(s), last error: %v", ErrRetriesExhausted, attempts, lastErr)
}

// downloadAtomic writes the body to a temp file next to the destination and
// renames it into place, hashing as it copies.
func (f *Fetcher) downloadAtomic(client *http.Client, job Job) (string, int64, error) {
	req, err := http.NewRequest(http.MethodGet, job.URL, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", "rpm-repo-composer")
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("bad status: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(job.DestPath), 0755); err != nil {
		return "", 0, err
	}

	tmp := job.DestPath + ".tmp-" + uuid.NewString()
	out, err := os.Create(tmp)
	if err != nil {
		return "", 0, err
	}

	hash := sha256.New()
	size, err := io.Copy(out, io.TeeReader(resp.Body, hash))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", 0, err
	}

	if err := os.Rename(tmp, job.DestPath); err != nil {
		os.Remove(tmp)
		return "", 0, err
	}
	return hex.EncodeToString(hash.Sum(nil)), size, nil
}
