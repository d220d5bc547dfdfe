package collector

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockPulse/internal/config"
	"StockPulse/internal/model"
)

const (
	seriesFunction = "TIME_SERIES_DAILY"
	metaKey        = "Meta Data"
	noteKey        = "Note"
	infoKey        = "Information"
	errorKey       = "Error Message"
)

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage query API.
type AlphaVantageFetcher struct {
	BaseURL    string
	APIKey     string
	OutputSize string
	Client     *http.Client
}

// NewAlphaVantageFetcher creates a fetcher with optional proxy support.
// The API key is mandatory.
func NewAlphaVantageFetcher(baseURL, apiKey, outputSize, proxyURL string, timeout time.Duration) (*AlphaVantageFetcher, error) {
	if apiKey == "" {
		return nil, &config.ConfigError{Field: "data_source.api_key", Reason: "is required (set ALPHA_VANTAGE_API_KEY)"}
	}
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if outputSize == "" {
		outputSize = "compact"
	}
	return &AlphaVantageFetcher{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		OutputSize: outputSize,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// Fetch issues a single GET for the daily series of symbol.
func (f *AlphaVantageFetcher) Fetch(ctx context.Context, symbol string) (*model.RawPayload, error) {
	if f.APIKey == "" {
		return nil, &config.ConfigError{Field: "data_source.api_key", Reason: "is required (set ALPHA_VANTAGE_API_KEY)"}
	}

	q := url.Values{}
	q.Set("function", seriesFunction)
	q.Set("symbol", symbol)
	q.Set("apikey", f.APIKey)
	q.Set("outputsize", f.OutputSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Kind: KindTransport, Err: err}
	}
	req.Header.Set("User-Agent", "stockpulse/1.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Kind: KindTransport, Err: f.redact(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Kind: KindTransport, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Symbol: symbol, Kind: KindHTTPStatus, StatusCode: resp.StatusCode, Message: snippet(body)}
	}
	if err := checkEnvelope(symbol, body); err != nil {
		return nil, err
	}

	return &model.RawPayload{Symbol: symbol, Body: body, FetchedAt: time.Now()}, nil
}

// checkEnvelope rejects bodies that carry no series. A throttled request
// still answers 200, with a "Note" or "Information" string instead of data.
func checkEnvelope(symbol string, body []byte) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &FetchError{Symbol: symbol, Kind: KindDecode, Err: err}
	}
	if _, ok := envelope[metaKey]; ok {
		return nil
	}
	for _, key := range []string{noteKey, infoKey} {
		if msg, ok := envelope[key]; ok {
			return &FetchError{Symbol: symbol, Kind: KindRateLimited, Message: message(msg)}
		}
	}
	if msg, ok := envelope[errorKey]; ok {
		return &FetchError{Symbol: symbol, Kind: KindAPI, Message: message(msg)}
	}
	return &FetchError{Symbol: symbol, Kind: KindAPI, Message: "no data returned"}
}

// redact strips the API key from transport errors, which embed the request URL.
func (f *AlphaVantageFetcher) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = strings.ReplaceAll(uerr.URL, url.QueryEscape(f.APIKey), "REDACTED")
	}
	return err
}

func message(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
