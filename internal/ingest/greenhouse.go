package ingest

import (
	"context"
	"fmt"
	"html"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"
	greenhousePerPage = 100
)

// Posting is a source-neutral job posting as fetched from an ATS board,
// before it is persisted.
type Posting struct {
	ExternalID  string
	Title       string
	Department  string
	Location    string
	ContentHTML string
	Raw         string
}

// GreenhouseClient fetches postings from the public Greenhouse board API.
// No authentication: only boards the company made public are reachable.
type GreenhouseClient struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewGreenhouseClient(logger *zap.Logger) *GreenhouseClient {
	return &GreenhouseClient{
		http:   resty.New().SetBaseURL(greenhouseBaseURL),
		logger: logger.With(zap.String("source", "greenhouse")),
	}
}

// FetchBoard pages through a company's board and returns every posting with
// its full HTML content. The content field arrives HTML-entity escaped and
// is unescaped here.
func (c *GreenhouseClient) FetchBoard(ctx context.Context, board string) ([]Posting, error) {
	var postings []Posting

	for page := 1; ; page++ {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"content":  "true",
				"page":     strconv.Itoa(page),
				"per_page": strconv.Itoa(greenhousePerPage),
			}).
			Get(fmt.Sprintf("/%s/jobs", board))
		if err != nil {
			return nil, fmt.Errorf("fetching %s page %d: %w", board, page, err)
		}
		if resp.StatusCode() == 404 {
			return nil, fmt.Errorf("board %q not found", board)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("fetching %s page %d: status %s", board, page, resp.Status())
		}

		jobs := gjson.GetBytes(resp.Body(), "jobs").Array()
		if len(jobs) == 0 {
			break
		}

		for _, job := range jobs {
			postings = append(postings, Posting{
				ExternalID:  job.Get("id").String(),
				Title:       job.Get("title").String(),
				Department:  job.Get("departments.0.name").String(),
				Location:    job.Get("location.name").String(),
				ContentHTML: html.UnescapeString(job.Get("content").String()),
				Raw:         job.Raw,
			})
		}

		c.logger.Debug("fetched page",
			zap.String("board", board),
			zap.Int("page", page),
			zap.Int("jobs", len(jobs)),
		)

		if len(jobs) < greenhousePerPage {
			break
		}
	}

	c.logger.Info("board fetched", zap.String("board", board), zap.Int("jobs", len(postings)))
	return postings, nil
}
