package config

// Validate checks the three required fields in fixed order and reports
// the environment-style name of each empty one. ChatDeployment and
// SearchAPIKey are optional and never appear in the missing list. An
// incomplete configuration is reported, never raised.
func (c Config) Validate() (bool, []string) {
	var missing []string

	if c.Endpoint == "" {
		missing = append(missing, EnvEndpoint)
	}
	if c.SearchEndpoint == "" {
		missing = append(missing, EnvSearchEndpoint)
	}
	if c.SearchIndexName == "" {
		missing = append(missing, EnvSearchIndexName)
	}

	return len(missing) == 0, missing
}
