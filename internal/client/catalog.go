package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"pokelearn/web/internal/config"
	"pokelearn/web/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

type CatalogClient interface {
	ListAll(ctx context.Context) ([]domain.IndexEntry, error)
	GetDetail(ctx context.Context, url string) (*domain.DetailRecord, error)
}

type catalogClient struct {
	rl         ratelimit.Limiter
	baseURL    string
	listLimit  int
	httpClient *resty.Client
}

func NewCatalogClient(cfg config.CatalogConfig) CatalogClient {
	client := resty.New().
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	if cfg.Timeout > 0 {
		client.SetTimeout(time.Duration(cfg.Timeout) * time.Second)
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
		log.Infof("⏱️ Catalog requests limited to %d per second", cfg.MaxRequestsPerSecond)
	}

	return &catalogClient{
		rl:         rl,
		baseURL:    cfg.BaseURL,
		listLimit:  cfg.ListLimit,
		httpClient: client,
	}
}

type listResponse struct {
	Results []domain.IndexEntry `json:"results"`
}

func (c *catalogClient) ListAll(ctx context.Context) ([]domain.IndexEntry, error) {
	url := fmt.Sprintf("%s/pokemon", c.baseURL)

	var body listResponse
	if err := c.fetchJSON(ctx, url, map[string]string{"limit": strconv.Itoa(c.listLimit)}, &body); err != nil {
		return nil, &domain.FetchError{Op: domain.OpIndex, Err: err}
	}

	log.Debugf("Fetched catalog index with %d entries", len(body.Results))
	return body.Results, nil
}

// detailResponse mirrors the subset of the detail payload the listing uses.
type detailResponse struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Height  int    `json:"height"`
	Weight  int    `json:"weight"`
	Sprites struct {
		Other map[string]struct {
			FrontDefault *string `json:"front_default"`
		} `json:"other"`
	} `json:"sprites"`
	Types []struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability struct {
			Name string `json:"name"`
		} `json:"ability"`
	} `json:"abilities"`
	Stats []struct {
		BaseStat int `json:"base_stat"`
		Stat     struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
}

func (r *detailResponse) toRecord() *domain.DetailRecord {
	record := &domain.DetailRecord{
		ID:        r.ID,
		Name:      r.Name,
		Height:    r.Height,
		Weight:    r.Weight,
		Types:     make([]string, 0, len(r.Types)),
		Abilities: make([]string, 0, len(r.Abilities)),
		Stats:     make([]domain.Stat, 0, len(r.Stats)),
	}

	if artwork, ok := r.Sprites.Other["official-artwork"]; ok {
		record.ImageURL = artwork.FrontDefault
	}
	for _, t := range r.Types {
		record.Types = append(record.Types, t.Type.Name)
	}
	for _, a := range r.Abilities {
		record.Abilities = append(record.Abilities, a.Ability.Name)
	}
	for _, s := range r.Stats {
		record.Stats = append(record.Stats, domain.Stat{Name: s.Stat.Name, Value: s.BaseStat})
	}

	return record
}

func (c *catalogClient) GetDetail(ctx context.Context, url string) (*domain.DetailRecord, error) {
	var body detailResponse
	if err := c.fetchJSON(ctx, url, nil, &body); err != nil {
		return nil, &domain.FetchError{Op: domain.OpDetail, Err: err}
	}

	log.Debugf("Fetched details for %s (#%d)", body.Name, body.ID)
	return body.toRecord(), nil
}

func (c *catalogClient) fetchJSON(ctx context.Context, url string, query map[string]string, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("request cancelled: %w", err)
	}
	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(url)

	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to fetch URL %s: %w", url, err)
	}

	if resp.IsError() {
		return fmt.Errorf("HTTP error: %s", resp.Status())
	}

	if err := json.Unmarshal([]byte(resp.String()), out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}
