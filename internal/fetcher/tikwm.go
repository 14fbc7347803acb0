package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TikwmClient talks to a tikwm-style extraction API: a GET with the clip link
// as a query parameter, answered with direct media URLs. Anything other than a
// well-formed success response counts as one extraction failure.
type TikwmClient struct {
	endpoint string
	client   *http.Client
}

// NewTikwmClient builds a client for the given endpoint (for example
// "https://tikwm.com/api/"). The timeout bounds the whole request.
func NewTikwmClient(endpoint string, timeout time.Duration) *TikwmClient {
	return &TikwmClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type tikwmResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Play  string `json:"play"`
		Music string `json:"music"`
		Title string `json:"title"`
	} `json:"data"`
}

func (c *TikwmClient) Fetch(ctx context.Context, link string, kind Kind) (*Asset, error) {
	reqURL := c.endpoint + "?url=" + url.QueryEscape(link)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction API returned status %d", resp.StatusCode)
	}

	var body tikwmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	if body.Code != 0 {
		return nil, fmt.Errorf("extraction API error %d: %s", body.Code, body.Msg)
	}
	if body.Data.Play == "" {
		return nil, fmt.Errorf("extraction response has no media URL")
	}

	asset := &Asset{Title: body.Data.Title}
	if kind == KindAudio {
		if body.Data.Music == "" {
			return nil, ErrNoAudio
		}
		asset.URL = body.Data.Music
	} else {
		asset.URL = body.Data.Play
	}
	return asset, nil
}
