package chat

import (
	"github.com/xhad/ragchat/internal/models"
	"github.com/xhad/ragchat/pkg/config"
)

// NewSearchDataSource builds the azure_search data source descriptor
// from configuration: API key authentication when a key is configured,
// otherwise the system-assigned managed identity. Returns nil when the
// search endpoint or index name is not configured, in which case
// requests go out ungrounded.
func NewSearchDataSource(cfg config.Config) *models.DataSource {
	if cfg.SearchEndpoint == "" || cfg.SearchIndexName == "" {
		return nil
	}

	authentication := models.Authentication{Type: "system_assigned_managed_identity"}
	if cfg.SearchAPIKey != "" {
		authentication = models.Authentication{Type: "api_key", Key: cfg.SearchAPIKey}
	}

	return &models.DataSource{
		Type: "azure_search",
		Parameters: models.DataSourceParameters{
			Endpoint:       cfg.SearchEndpoint,
			IndexName:      cfg.SearchIndexName,
			Authentication: authentication,
		},
	}
}
