package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	leverBaseURL  = "https://api.lever.co/v0/postings"
	leverPageSize = 100
)

// LeverClient fetches postings from the public Lever postings API.
type LeverClient struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewLeverClient(logger *zap.Logger) *LeverClient {
	return &LeverClient{
		http:   resty.New().SetBaseURL(leverBaseURL),
		logger: logger.With(zap.String("source", "lever")),
	}
}

// FetchBoard pages through a company's postings with skip/limit offsets.
// The posting body is assembled from the description plus each list section,
// since Lever splits responsibilities and requirements into lists.
func (c *LeverClient) FetchBoard(ctx context.Context, company string) ([]Posting, error) {
	var postings []Posting

	for skip := 0; ; skip += leverPageSize {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"mode":  "json",
				"skip":  strconv.Itoa(skip),
				"limit": strconv.Itoa(leverPageSize),
			}).
			Get("/" + company)
		if err != nil {
			return nil, fmt.Errorf("fetching %s at offset %d: %w", company, skip, err)
		}
		if resp.StatusCode() == 404 {
			return nil, fmt.Errorf("company %q not found", company)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("fetching %s at offset %d: status %s", company, skip, resp.Status())
		}

		page := gjson.ParseBytes(resp.Body()).Array()
		if len(page) == 0 {
			break
		}

		for _, job := range page {
			postings = append(postings, Posting{
				ExternalID:  job.Get("id").String(),
				Title:       job.Get("text").String(),
				Department:  job.Get("categories.team").String(),
				Location:    job.Get("categories.location").String(),
				ContentHTML: leverContent(job),
				Raw:         job.Raw,
			})
		}

		c.logger.Debug("fetched page",
			zap.String("company", company),
			zap.Int("skip", skip),
			zap.Int("jobs", len(page)),
		)

		if len(page) < leverPageSize {
			break
		}
	}

	c.logger.Info("board fetched", zap.String("company", company), zap.Int("jobs", len(postings)))
	return postings, nil
}

func leverContent(job gjson.Result) string {
	var parts []string
	if desc := job.Get("description").String(); desc != "" {
		parts = append(parts, desc)
	}
	for _, list := range job.Get("lists").Array() {
		if title := list.Get("text").String(); title != "" {
			parts = append(parts, "<h3>"+title+"</h3>")
		}
		if content := list.Get("content").String(); content != "" {
			parts = append(parts, content)
		}
	}
	if extra := job.Get("additional").String(); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, "\n")
}
