package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arxivcollector/pkg/arxiv"
	"arxivcollector/pkg/config"
	errs "arxivcollector/pkg/errors"
	"arxivcollector/pkg/logger"
	"arxivcollector/pkg/ratelimit"
	"arxivcollector/pkg/store"
)

// Fetcher retrieves one page of results for a keyword
type Fetcher interface {
	FetchPage(ctx context.Context, keyword string, start, pageSize int) (*arxiv.Page, error)
}

// Collector drives the collection run: it iterates resumable keywords,
// pages through the upstream results for each one and persists every page
// through the store
type Collector struct {
	fetcher Fetcher
	store   *store.Store
	limiter ratelimit.Limiter
	cfg     *config.Config
	logger  logger.Logger
}

// New creates a Collector wired to the given fetcher and store
func New(cfg *config.Config, fetcher Fetcher, st *store.Store) *Collector {
	return &Collector{
		fetcher: fetcher,
		store:   st,
		limiter: ratelimit.NewInterval(cfg.RateLimit.RequestDelay),
		cfg:     cfg,
		logger:  logger.GetLogger(),
	}
}

// keywordResult summarizes what one keyword's collection achieved
type keywordResult struct {
	Status       store.KeywordStatus
	TotalResults int
	Processed    int
	Stored       int
}

// Run processes every resumable keyword in creation order. Cancellation is
// observed between keywords and between pages; a single keyword's failure
// does not abort the run, a store failure does.
func (c *Collector) Run(ctx context.Context) error {
	keywords, err := c.store.ListResumable(ctx, c.cfg.Collect.RetryInterrupted)
	if err != nil {
		return err
	}

	c.logger.InfoWithFields("starting collection run", map[string]interface{}{
		"keywords": len(keywords),
	})

	if len(keywords) == 0 {
		c.logger.Info("no keywords to process")
		return nil
	}

	startTime := time.Now()
	completed := 0

	for _, keyword := range keywords {
		// Shutdown checkpoint between keywords
		if ctx.Err() != nil {
			c.logger.Info("shutdown requested, not starting further keywords")
			break
		}

		result, err := c.processKeyword(ctx, keyword)
		if err != nil {
			var typed *errs.Error
			if errors.As(err, &typed) && errs.IsFatal(typed.Type) {
				return err
			}
			c.logger.ErrorWithFields("keyword failed", map[string]interface{}{
				"keyword": keyword.Keyword,
				"error":   err.Error(),
			})
			continue
		}

		if result.Status == store.StatusInterrupted {
			c.logger.InfoWithFields("keyword interrupted", map[string]interface{}{
				"keyword":   keyword.Keyword,
				"processed": result.Processed,
			})
			break
		}

		completed++
		c.reportProgress(completed, len(keywords), startTime)

		if completed%c.cfg.Collect.SummaryInterval == 0 {
			c.logSummary(ctx)
		}
	}

	c.logSummary(context.WithoutCancel(ctx))
	c.logger.Info("collection run finished")
	return nil
}

// processKeyword pages through all results for one keyword up to the
// configured ceiling, committing each page before requesting the next
func (c *Collector) processKeyword(ctx context.Context, keyword store.Keyword) (keywordResult, error) {
	c.logger.InfoWithFields("processing keyword", map[string]interface{}{
		"keyword": keyword.Keyword,
	})

	result := keywordResult{Status: store.StatusProcessing}

	if err := c.store.MarkProcessing(ctx, keyword.ID); err != nil {
		return result, err
	}

	maxResults := c.cfg.Arxiv.MaxResults
	pageSize := c.cfg.Arxiv.PageSize
	start := 0
	batch := 0

	for start < maxResults {
		// Shutdown checkpoint between pages
		if ctx.Err() != nil {
			break
		}

		// Pace every request. The interval limiter lets the first request
		// through immediately and enforces the gap between adjacent ones.
		if err := c.limiter.Wait(ctx); err != nil {
			break
		}

		request := pageSize
		if remaining := maxResults - start; remaining < request {
			request = remaining
		}

		page, err := c.fetcher.FetchPage(ctx, keyword.Keyword, start, request)
		if err != nil {
			if ctx.Err() != nil {
				// The request was cut short by shutdown, not by the upstream
				break
			}
			result.Status = store.StatusFailed
			if markErr := c.store.MarkFailed(ctx, keyword.ID, err.Error()); markErr != nil {
				return result, markErr
			}
			return result, fmt.Errorf("fetching %q at offset %d: %w", keyword.Keyword, start, err)
		}

		if start == 0 {
			result.TotalResults = page.TotalResults
			if result.TotalResults > maxResults {
				result.TotalResults = maxResults
			}
			c.logger.InfoWithFields("reported total for keyword", map[string]interface{}{
				"keyword":  keyword.Keyword,
				"reported": page.TotalResults,
				"clamped":  result.TotalResults,
			})
		}

		pageResult, err := c.store.SavePage(ctx, keyword.ID, page.Papers)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			result.Status = store.StatusFailed
			if markErr := c.store.MarkFailed(ctx, keyword.ID, err.Error()); markErr != nil {
				return result, markErr
			}
			return result, err
		}

		result.Processed += len(page.Papers)
		result.Stored += pageResult.Inserted

		// Progress always commits together with its page, even when a
		// shutdown request lands in between
		if err := c.store.MarkProgress(context.WithoutCancel(ctx), keyword.ID, result.TotalResults, result.Processed); err != nil {
			return result, err
		}

		batch++
		c.logger.InfoWithFields("page committed", map[string]interface{}{
			"keyword": keyword.Keyword,
			"batch":   batch,
			"papers":  len(page.Papers),
			"new":     pageResult.Inserted,
		})

		// A short page means the upstream ran out of results
		if len(page.Papers) < request {
			break
		}

		start += len(page.Papers)
	}

	if ctx.Err() != nil {
		// The run context is already cancelled here; the terminal
		// transition still has to commit
		result.Status = store.StatusInterrupted
		if err := c.store.MarkInterrupted(context.WithoutCancel(ctx), keyword.ID); err != nil {
			return result, err
		}
		return result, nil
	}

	result.Status = store.StatusCompleted
	if err := c.store.MarkCompleted(ctx, keyword.ID); err != nil {
		return result, err
	}

	c.logger.InfoWithFields("keyword completed", map[string]interface{}{
		"keyword":   keyword.Keyword,
		"processed": result.Processed,
		"new":       result.Stored,
	})

	return result, nil
}

// reportProgress logs throughput and a wall-clock ETA for the run
func (c *Collector) reportProgress(completed, total int, startTime time.Time) {
	elapsed := time.Since(startTime)
	if elapsed <= 0 || completed == 0 {
		return
	}

	rate := float64(completed) / elapsed.Seconds()
	remaining := total - completed
	eta := time.Duration(float64(remaining) / rate * float64(time.Second))

	c.logger.InfoWithFields("run progress", map[string]interface{}{
		"completed": completed,
		"total":     total,
		"percent":   fmt.Sprintf("%.1f", float64(completed)/float64(total)*100),
		"eta":       eta.Round(time.Second),
	})
}

// logSummary reports aggregate store contents
func (c *Collector) logSummary(ctx context.Context) {
	summary, err := c.store.GetSummary(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("failed to compute summary")
		return
	}

	c.logger.InfoWithFields("store summary", map[string]interface{}{
		"unique_papers":   summary.Papers.TotalUnique,
		"linked_papers":   summary.Papers.Linked,
		"statuses":        summary.Keywords,
		"total_found":     summary.Processing.TotalFound,
		"total_processed": summary.Processing.TotalProcessed,
	})
}
