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

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	hhAPIURL    = "https://api.hh.ru"
	hhSearchURL = hhAPIURL + "/vacancies"
	hhPerPage   = 100
	hhMaxPages  = 5
)

// HeadHunter collects vacancies from the hh.ru public API.
type HeadHunter struct {
	APIURL     string
	UserAgent  string
	HTTPClient *http.Client

	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHeadHunter constructs the hh.ru adapter. The API allows anonymous
// search; userAgent identifies the client as the API rules require.
func NewHeadHunter(userAgent string, logger *zap.Logger) *HeadHunter {
	return &HeadHunter{
		APIURL:     hhSearchURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		// hh.ru tolerates roughly one search request per second for
		// anonymous clients.
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger,
	}
}

func (h *HeadHunter) Name() string { return "headhunter" }

// hhItem mirrors the subset of a vacancy item the pipeline needs.
type hhItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Employer struct {
		Name string `json:"name"`
	} `json:"employer"`
	Area struct {
		Name string `json:"name"`
	} `json:"area"`
	Schedule struct {
		ID string `json:"id"`
	} `json:"schedule"`
	Experience struct {
		ID string `json:"id"`
	} `json:"experience"`
	KeySkills []struct {
		Name string `json:"name"`
	} `json:"key_skills"`
	Snippet struct {
		Requirement    string `json:"requirement"`
		Responsibility string `json:"responsibility"`
	} `json:"snippet"`
	AlternateURL string `json:"alternate_url"`
	ApplyURL     string `json:"apply_alternate_url"`
}

type hhPage struct {
	Items []map[string]any `json:"items"`
	Pages int              `json:"pages"`
	Page  int              `json:"page"`
}

func (h *HeadHunter) Collect(ctx context.Context, keywords []string) ([]RawRecord, error) {
	var records []RawRecord

	for page := 0; page < hhMaxPages; page++ {
		resp, err := h.fetchPage(ctx, strings.Join(keywords, " "), page)
		if err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			rec, err := h.toRecord(item)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}

		if resp.Page >= resp.Pages-1 {
			break
		}
	}

	return records, nil
}

func (h *HeadHunter) fetchPage(ctx context.Context, text string, page int) (*hhPage, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("text", text)
	q.Set("per_page", strconv.Itoa(hhPerPage))
	q.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.APIURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.URL.RawQuery = q.Encode()

	h.logger.Debug("hh.ru request", zap.String("url", req.URL.String()))

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: hh.ru returned %s", ErrRateLimited, resp.Status)
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: hh.ru returned %s", ErrBlocked, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: hh.ru returned %s", ErrBadResponse, resp.Status)
	}

	var parsed hhPage
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode search page: %v", ErrBadResponse, err)
	}

	return &parsed, nil
}

// toRecord decodes a loosely typed API item into a RawRecord. Items come back
// as generic maps; mapstructure bridges them onto the typed view using the
// json tags.
func (h *HeadHunter) toRecord(item map[string]any) (RawRecord, error) {
	var v hhItem
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &v,
		TagName: "json",
	})
	if err != nil {
		return RawRecord{}, err
	}
	if err := dec.Decode(item); err != nil {
		return RawRecord{}, fmt.Errorf("%w: decode vacancy item: %v", ErrBadResponse, err)
	}

	tags := make([]string, 0, len(v.KeySkills))
	for _, s := range v.KeySkills {
		tags = append(tags, s.Name)
	}

	description := strings.TrimSpace(v.Snippet.Responsibility)
	if req := strings.TrimSpace(v.Snippet.Requirement); req != "" {
		if description != "" {
			description += "\n"
		}
		description += req
	}

	return RawRecord{
		Source:      h.Name(),
		SourceID:    v.ID,
		Title:       v.Name,
		Company:     v.Employer.Name,
		Location:    v.Area.Name,
		WorkMode:    v.Schedule.ID,
		Seniority:   v.Experience.ID,
		Tags:        tags,
		Description: description,
		SourceURL:   v.AlternateURL,
		ApplyURL:    v.ApplyURL,
	}, nil
}
