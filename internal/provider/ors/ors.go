// Package ors routes trucks through openrouteservice (driving-hgv profile).
package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
	"github.com/mohammed-shakir/lkw-route-density/internal/provider"
)

const (
	Name    = "ors"
	Profile = "driving-hgv"
)

func init() {
	provider.Register(Name, func(opts provider.Options) (provider.Router, error) {
		return New(opts)
	})
}

type Client struct {
	opts     provider.Options
	endpoint string
}

func New(opts provider.Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%s: base url is required", Name)
	}
	if opts.HTTP == nil {
		opts.HTTP = http.DefaultClient
	}
	return &Client{opts: opts, endpoint: base + "/v2/directions/" + Profile}, nil
}

func (c *Client) Name() string { return Name }

type request struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type response struct {
	Routes []struct {
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

func (c *Client) Route(ctx context.Context, start, end model.Coordinate) (model.Geometry, error) {
	body, err := json.Marshal(request{Coordinates: [][2]float64{
		{start.Lon, start.Lat},
		{end.Lon, end.Lat},
	}})
	if err != nil {
		return nil, fmt.Errorf("%w: %s encode request: %v", provider.ErrProvider, Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s build request: %v", provider.ErrProvider, Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", c.opts.APIKey)
	}

	var resp response
	if err := provider.DoJSON(ctx, c.opts, Name, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, fmt.Errorf("%w: %s returned no routes", provider.ErrProvider, Name)
	}
	return provider.DecodePolyline(resp.Routes[0].Geometry)
}
