package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Unknown is the fallback for any context value whose upstream fetch
// failed. Fetch failures are recovered here and never surfaced to the
// user.
const Unknown = "Unknown"

const datetimeLayout = "Monday, 02 January 2006, 03:04 PM"

// Fetcher resolves the dynamic prompt context. The three lookups are
// independent and run concurrently; all must have settled before the
// prompts are rendered.
type Fetcher struct {
	httpClient *http.Client

	cityURL    string
	weatherURL string
}

// NewFetcher builds a context fetcher. A nil client gets a default
// with a short timeout; a hung lookup must not delay session start for
// long.
func NewFetcher(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Fetcher{
		httpClient: httpClient,
		cityURL:    "https://ipinfo.io/json",
		weatherURL: "https://wttr.in",
	}
}

// Fetch resolves datetime, city and weather concurrently and joins
// before returning: prompt rendering needs all three settled. Weather
// depends on the resolved city, so those two form one chain. The
// returned Context is always fully populated; failed lookups hold the
// Unknown fallback.
func (f *Fetcher) Fetch(ctx context.Context) Context {
	values := Context{
		Datetime: Unknown,
		City:     Unknown,
		Weather:  Unknown,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		values.Datetime = time.Now().Format(datetimeLayout)
		return nil
	})
	g.Go(func() error {
		values.City = f.fetchCity(gctx)
		values.Weather = f.fetchWeather(gctx, values.City)
		return nil
	})
	g.Wait()

	return values
}

func (f *Fetcher) fetchCity(ctx context.Context) string {
	body, err := f.get(ctx, f.cityURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch current city")
		return Unknown
	}

	var info struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(body, &info); err != nil || info.City == "" {
		log.Warn().Err(err).Msg("City lookup returned no usable city")
		return Unknown
	}
	return info.City
}

func (f *Fetcher) fetchWeather(ctx context.Context, city string) string {
	if city == Unknown {
		return Unknown
	}

	weatherURL := fmt.Sprintf("%s/%s?format=3", f.weatherURL, url.PathEscape(city))
	body, err := f.get(ctx, weatherURL)
	if err != nil {
		log.Warn().Err(err).Str("city", city).Msg("Failed to fetch weather")
		return Unknown
	}

	weather := strings.TrimSpace(string(body))
	if weather == "" {
		return Unknown
	}
	return weather
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
