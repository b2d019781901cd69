// Package graphhopper routes trucks through the GraphHopper Routing API.
package graphhopper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
	"github.com/mohammed-shakir/lkw-route-density/internal/provider"
)

const (
	Name    = "graphhopper"
	Profile = "truck"
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
	return &Client{opts: opts, endpoint: base + "/route"}, nil
}

func (c *Client) Name() string { return Name }

type response struct {
	Paths []struct {
		Points string `json:"points"`
	} `json:"paths"`
}

// GraphHopper takes points as "lat,lon"
func point(c model.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

func (c *Client) Route(ctx context.Context, start, end model.Coordinate) (model.Geometry, error) {
	q := url.Values{}
	q.Add("point", point(start))
	q.Add("point", point(end))
	q.Set("profile", Profile)
	q.Set("points_encoded", "true")
	q.Set("instructions", "false")
	if c.opts.APIKey != "" {
		q.Set("key", c.opts.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s build request: %v", provider.ErrProvider, Name, err)
	}

	var resp response
	if err := provider.DoJSON(ctx, c.opts, Name, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Paths) == 0 {
		return nil, fmt.Errorf("%w: %s returned no paths", provider.ErrProvider, Name)
	}
	return provider.DecodePolyline(resp.Paths[0].Points)
}
