package clients

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"chargeroute/backend/services/optimizer-service/internal/metrics"
	"chargeroute/backend/services/optimizer-service/internal/models"
)

// ProfilesOptions configures the PostgREST endpoint holding user and vehicle records.
type ProfilesOptions struct {
	BaseURL   string
	APIKey    string
	AuthToken string
}

// ProfilesClient reads single records from a PostgREST (Supabase) API.
type ProfilesClient struct {
	base    *BaseClient
	headers map[string]string
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewProfilesClient returns client.
func NewProfilesClient(opts ProfilesOptions, httpClient HTTPDoer, rec *metrics.Recorder, logger *zap.Logger) *ProfilesClient {
	return &ProfilesClient{
		base: NewBaseClient(opts.BaseURL, httpClient),
		headers: map[string]string{
			"apikey":        opts.APIKey,
			"Authorization": "Bearer " + opts.AuthToken,
			"Range":         "0-9",
		},
		metrics: rec,
		logger:  componentLogger(logger, SourceProfiles),
	}
}

// FetchRecord returns the first row of table whose idColumn equals id, or an empty record
// when no row matches.
func (c *ProfilesClient) FetchRecord(ctx context.Context, table, id, idColumn string) (rec models.Record, err error) {
	start := time.Now()
	defer func() { observe(c.metrics, SourceProfiles, start, err) }()

	query := url.Values{}
	query.Set(idColumn, "eq."+id)
	query.Set("select", "*")

	var rows []models.Record
	if err = c.base.GetJSON(ctx, SourceProfiles, "/"+url.PathEscape(table), query, c.headers, &rows); err != nil {
		c.logger.Warn("record lookup failed", zap.String("table", table), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return models.Record{}, nil
	}
	return rows[0], nil
}
