package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const remotiveAPIURL = "https://remotive.com/api/remote-jobs"

// Remotive collects listings from the Remotive public API. Every Remotive
// listing is remote by definition.
type Remotive struct {
	BaseURL    string
	HTTPClient *http.Client

	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewRemotive(logger *zap.Logger) *Remotive {
	return &Remotive{
		BaseURL:    remotiveAPIURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		// Remotive asks public API consumers to stay well under 4 requests
		// per minute.
		limiter: rate.NewLimiter(rate.Every(20*time.Second), 1),
		logger:  logger,
	}
}

func (r *Remotive) Name() string { return "remotive" }

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	CompanyName string      `json:"company_name"`
	Location    string      `json:"candidate_required_location"`
	Tags        []string    `json:"tags"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
}

func (r *Remotive) Collect(ctx context.Context, keywords []string) ([]RawRecord, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("search", strings.Join(keywords, " "))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	r.logger.Debug("remotive request", zap.Strings("keywords", keywords))

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: remotive returned %s", ErrRateLimited, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: remotive returned %s", ErrBadResponse, resp.Status)
	}

	var parsed remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode jobs: %v", ErrBadResponse, err)
	}

	records := make([]RawRecord, 0, len(parsed.Jobs))
	for _, j := range parsed.Jobs {
		records = append(records, RawRecord{
			Source:      r.Name(),
			SourceID:    j.ID.String(),
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    j.Location,
			WorkMode:    "remote",
			Tags:        j.Tags,
			Description: j.Description,
			SourceURL:   j.URL,
			ApplyURL:    j.URL,
		})
	}

	return records, nil
}
