package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3
)

// Adzuna collects listings from the Adzuna public API.
type Adzuna struct {
	AppID   string
	AppKey  string
	Country string // "gb", "us", "br", ...

	BaseURL    string
	HTTPClient *http.Client

	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewAdzuna(appID, appKey, country string, logger *zap.Logger) *Adzuna {
	if country == "" {
		country = "gb"
	}
	return &Adzuna{
		AppID:      appID,
		AppKey:     appKey,
		Country:    country,
		BaseURL:    adzunaBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		logger:     logger,
	}
}

func (a *Adzuna) Name() string { return "adzuna" }

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
}

type adzunaResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	Category struct {
		Label string `json:"label"`
	} `json:"category"`
	ContractTime string `json:"contract_time"`
	RedirectURL  string `json:"redirect_url"`
}

func (a *Adzuna) Collect(ctx context.Context, keywords []string) ([]RawRecord, error) {
	if a.AppID == "" || a.AppKey == "" {
		return nil, fmt.Errorf("%w: adzuna credentials are not configured", ErrBlocked)
	}

	var records []RawRecord

	for page := 1; page <= adzunaMaxPages; page++ {
		batch, err := a.fetchPage(ctx, strings.Join(keywords, " "), page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		records = append(records, batch...)
		if len(batch) < adzunaPageSize {
			break
		}
	}

	return records, nil
}

func (a *Adzuna) fetchPage(ctx context.Context, what string, page int) ([]RawRecord, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("app_id", a.AppID)
	params.Set("app_key", a.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", what)
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	endpoint := fmt.Sprintf("%s/%s/search/%d?%s", a.BaseURL, a.Country, page, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("adzuna request", zap.Int("page", page))

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: adzuna returned %s", ErrRateLimited, resp.Status)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: adzuna returned %s", ErrBlocked, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: adzuna returned %s", ErrBadResponse, resp.Status)
	}

	var parsed adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode results: %v", ErrBadResponse, err)
	}

	records := make([]RawRecord, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		var tags []string
		if r.Category.Label != "" {
			tags = []string{r.Category.Label}
		}
		records = append(records, RawRecord{
			Source:      a.Name(),
			SourceID:    r.ID,
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			// Adzuna does not report a work mode; normalization
			// defaults it to unspecified.
			Tags:        tags,
			Description: r.Description,
			SourceURL:   r.RedirectURL,
			ApplyURL:    r.RedirectURL,
		})
	}

	return records, nil
}
