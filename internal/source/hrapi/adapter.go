package hrapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nhle/casewatch/internal/model"
	"github.com/nhle/casewatch/internal/source"
)

const (
	alertsPath = "/alertas/"
	casesPath  = "/casos/"
)

// Adapter implements source.Collections for the HR REST API.
type Adapter struct {
	client *Client
	norm   *Normalizer
}

var _ source.Collections = (*Adapter)(nil)

// NewAdapter creates a new HR API adapter. Zoneless dates are read in loc.
func NewAdapter(client *Client, loc *time.Location) *Adapter {
	return &Adapter{
		client: client,
		norm:   NewNormalizer(loc),
	}
}

// ListAlerts fetches GET /alertas/ and normalizes the records.
func (a *Adapter) ListAlerts(ctx context.Context) ([]model.Alert, error) {
	records, err := a.list(ctx, alertsPath)
	if err != nil {
		return nil, fmt.Errorf("fetching alerts: %w", err)
	}
	return a.norm.Alerts(records), nil
}

// ListCases fetches GET /casos/ and normalizes the records.
func (a *Adapter) ListCases(ctx context.Context) ([]model.Case, error) {
	records, err := a.list(ctx, casesPath)
	if err != nil {
		return nil, fmt.Errorf("fetching cases: %w", err)
	}
	return a.norm.Cases(records), nil
}

func (a *Adapter) list(ctx context.Context, path string) ([]Record, error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	records, err := decodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return records, nil
}
