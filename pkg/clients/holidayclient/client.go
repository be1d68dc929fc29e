package holidayclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/teambition/rrule-go"

	"github.com/mkowalski/staffrota/internal/config"
)

// publicHoliday is one holiday as returned by the Nager.Date-style API
type publicHoliday struct {
	Date      string `json:"date"` // "2006-01-02"
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

// Client resolves holiday dates from a public-holiday API plus configured
// company holiday rules. API responses are cached per (country, year) since
// holiday calendars only change between releases.
type Client struct {
	http    *resty.Client
	cache   *cache.Cache
	country string
	rules   []*rrule.RRule
}

// New creates a holiday client from configuration. With no country
// configured the client works offline from the configured rules alone.
func New(cfg *config.Config) (*Client, error) {
	rules := make([]*rrule.RRule, 0, len(cfg.HolidayRules))
	for i, ruleStr := range cfg.HolidayRules {
		rule, err := rrule.StrToRRule(ruleStr)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday rule [%d]: %w", i, err)
		}
		// Rules without an explicit DTSTART default to "now", which would
		// miss occurrences in past ranges
		if !strings.Contains(ruleStr, "DTSTART") {
			rule.DTStart(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
		}
		rules = append(rules, rule)
	}

	httpClient := resty.New().
		SetBaseURL(cfg.HolidayAPIBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)

	return &Client{
		http:    httpClient,
		cache:   cache.New(24*time.Hour, 48*time.Hour),
		country: cfg.HolidayCountry,
		rules:   rules,
	}, nil
}

// GetHolidays returns the holiday dates in the inclusive range, keyed
// "2006-01-02". API failures are returned as errors, never as an empty set.
func (c *Client) GetHolidays(ctx context.Context, from, to time.Time) (map[string]bool, error) {
	holidays := make(map[string]bool)

	if c.country != "" {
		for year := from.Year(); year <= to.Year(); year++ {
			yearHolidays, err := c.holidaysForYear(ctx, year)
			if err != nil {
				return nil, err
			}
			for _, holiday := range yearHolidays {
				holidays[holiday.Date] = true
			}
		}
	}

	for _, rule := range c.rules {
		for _, occurrence := range rule.Between(from, to, true) {
			holidays[occurrence.Format("2006-01-02")] = true
		}
	}

	// Keep only dates inside the range; the API returns whole years
	for dateStr := range holidays {
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil || day.Before(from) || day.After(to) {
			delete(holidays, dateStr)
		}
	}

	return holidays, nil
}

func (c *Client) holidaysForYear(ctx context.Context, year int) ([]publicHoliday, error) {
	cacheKey := fmt.Sprintf("%s-%d", c.country, year)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]publicHoliday), nil
	}

	var holidays []publicHoliday
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&holidays).
		Get(fmt.Sprintf("/api/v3/PublicHolidays/%d/%s", year, c.country))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holidays for %d: %w", year, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("holiday API returned %s for %d/%s", resp.Status(), year, c.country)
	}

	c.cache.Set(cacheKey, holidays, cache.DefaultExpiration)
	return holidays, nil
}
