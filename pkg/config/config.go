package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds everything the client needs to reach the chat deployment
// and its retrieval index. It is built once at startup and read-only
// afterwards.
type Config struct {
	Endpoint        string
	ChatDeployment  string
	SearchEndpoint  string
	SearchIndexName string
	SearchAPIKey    string
}

// Settings keys for the explicit override tier.
const (
	KeyEndpoint        = "AzureOpenAI:Endpoint"
	KeyChatDeployment  = "AzureOpenAI:ChatDeployment"
	KeySearchEndpoint  = "AzureSearch:Endpoint"
	KeySearchIndexName = "AzureSearch:IndexName"
	KeySearchAPIKey    = "AzureSearch:ApiKey"
)

// Environment variable names for the fallback tier.
const (
	EnvEndpoint        = "AZURE_OPENAI_ENDPOINT"
	EnvChatDeployment  = "AZURE_OPENAI_CHAT_DEPLOYMENT"
	EnvSearchEndpoint  = "AZURE_SEARCH_ENDPOINT"
	EnvSearchIndexName = "AZURE_SEARCH_INDEX_NAME"
	EnvSearchAPIKey    = "AZURE_SEARCH_API_KEY"
)

const DefaultChatDeployment = "gpt-4"

// LookupFunc reports the value for an environment key, os.LookupEnv shaped.
type LookupFunc func(key string) (string, bool)

// Resolver produces a Config from two tiers: an explicit settings map
// with hierarchical keys, then environment variables. A non-empty
// settings value wins outright and the environment is not consulted for
// that field. Each field resolves independently, so a settings map that
// supplies one key does not suppress environment lookup for the others.
type Resolver struct {
	settings map[string]string
	lookup   LookupFunc
}

func NewResolver(settings map[string]string, lookup LookupFunc) *Resolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Resolver{settings: settings, lookup: lookup}
}

func (r *Resolver) Load() Config {
	return Config{
		Endpoint:        r.resolve(KeyEndpoint, EnvEndpoint, ""),
		ChatDeployment:  r.resolve(KeyChatDeployment, EnvChatDeployment, DefaultChatDeployment),
		SearchEndpoint:  r.resolve(KeySearchEndpoint, EnvSearchEndpoint, ""),
		SearchIndexName: r.resolve(KeySearchIndexName, EnvSearchIndexName, ""),
		SearchAPIKey:    r.resolve(KeySearchAPIKey, EnvSearchAPIKey, ""),
	}
}

func (r *Resolver) resolve(settingsKey, envKey, fallback string) string {
	if v := r.settings[settingsKey]; v != "" {
		return v
	}
	if v, ok := r.lookup(envKey); ok && v != "" {
		return v
	}
	return fallback
}

// fileSettings mirrors the YAML layout of the optional settings file.
type fileSettings struct {
	AzureOpenAI struct {
		Endpoint       string `yaml:"endpoint"`
		ChatDeployment string `yaml:"chat_deployment"`
	} `yaml:"azure_openai"`
	AzureSearch struct {
		Endpoint  string `yaml:"endpoint"`
		IndexName string `yaml:"index_name"`
		APIKey    string `yaml:"api_key"`
	} `yaml:"azure_search"`
}

// LoadSettings reads the optional YAML settings file into the explicit
// override tier. With an empty path the default locations are tried;
// a missing file is not an error and yields an empty map.
func LoadSettings(path string) (map[string]string, error) {
	if path == "" {
		locations := []string{
			"ragchat.yaml",
			"ragchat.yml",
			filepath.Join(os.Getenv("HOME"), ".config/ragchat/config.yaml"),
			"/etc/ragchat/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	settings := map[string]string{}
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading settings file: %v", err)
	}

	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("error parsing settings file: %v", err)
	}

	put := func(key, value string) {
		if value != "" {
			settings[key] = value
		}
	}
	put(KeyEndpoint, fs.AzureOpenAI.Endpoint)
	put(KeyChatDeployment, fs.AzureOpenAI.ChatDeployment)
	put(KeySearchEndpoint, fs.AzureSearch.Endpoint)
	put(KeySearchIndexName, fs.AzureSearch.IndexName)
	put(KeySearchAPIKey, fs.AzureSearch.APIKey)

	return settings, nil
}
