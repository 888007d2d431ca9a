package chart

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Renderer turns a Chart into an encoded image.
type Renderer interface {
	Render(ctx context.Context, c Chart) ([]byte, error)
}

// QuickChartRenderer renders Chart.js configs through a QuickChart server.
type QuickChartRenderer struct {
	BaseURL string
	Client  *resty.Client
	Width   int
	Height  int
}

// NewQuickChartRenderer creates a renderer with optional proxy support.
func NewQuickChartRenderer(baseURL, proxyURL string, width, height int) *QuickChartRenderer {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &QuickChartRenderer{BaseURL: strings.TrimRight(baseURL, "/"), Client: client, Width: width, Height: height}
}

type qcRequest struct {
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	Format          string      `json:"format"`
	BackgroundColor string      `json:"backgroundColor"`
	Chart           chartConfig `json:"chart"`
}

type chartConfig struct {
	Type    string                 `json:"type"`
	Data    chartData              `json:"data"`
	Options map[string]interface{} `json:"options"`
}

type chartData struct {
	Labels   []string  `json:"labels"`
	Datasets []dataset `json:"datasets"`
}

type dataset struct {
	Label       string   `json:"label"`
	Data        []*int64 `json:"data"`
	Fill        bool     `json:"fill"`
	SpanGaps    bool     `json:"spanGaps"`
	PointRadius int      `json:"pointRadius"`
	BorderDash  []int    `json:"borderDash,omitempty"`
}

// config converts c into a Chart.js line chart. Absent points become nulls so
// the line breaks at unobserved slots; reference lines are flat dashed datasets.
func config(c Chart) chartConfig {
	labels := Labels()
	cfg := chartConfig{
		Type: "line",
		Data: chartData{Labels: labels[:]},
		Options: map[string]interface{}{
			"title":  map[string]interface{}{"display": c.Title != "", "text": c.Title},
			"legend": map[string]interface{}{"display": len(c.Series) > 1 || len(c.Lines) > 0, "position": "right"},
			"scales": map[string]interface{}{
				"yAxes": []interface{}{map[string]interface{}{
					"scaleLabel": map[string]interface{}{"display": true, "labelString": "price (bells)"},
				}},
			},
		},
	}
	for _, s := range c.Series {
		data := make([]*int64, len(s.Points))
		for i, p := range s.Points {
			if p.Present {
				v := p.Value
				data[i] = &v
			}
		}
		cfg.Data.Datasets = append(cfg.Data.Datasets, dataset{Label: s.Name, Data: data, PointRadius: 3})
	}
	for _, l := range c.Lines {
		data := make([]*int64, len(labels))
		for i := range data {
			v := l.Value
			data[i] = &v
		}
		cfg.Data.Datasets = append(cfg.Data.Datasets, dataset{
			Label: l.Label, Data: data, SpanGaps: true, BorderDash: []int{4, 4},
		})
	}
	return cfg
}

func (r *QuickChartRenderer) Render(ctx context.Context, c Chart) ([]byte, error) {
	resp, err := r.Client.R().
		SetContext(ctx).
		SetBody(qcRequest{
			Width:           r.Width,
			Height:          r.Height,
			Format:          "png",
			BackgroundColor: "white",
			Chart:           config(c),
		}).
		Post(r.BaseURL + "/chart")
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("quickchart error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}
