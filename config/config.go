// Package config provides configuration loading and management for skosdoc.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/grbba/skosdoc/identifier"
	"github.com/grbba/skosdoc/vocabulary/skos"
)

// Config represents the complete skosdoc configuration
type Config struct {
	Source      SourceConfig     `yaml:"source" toml:"source"`
	Output      OutputConfig     `yaml:"output" toml:"output"`
	Taxonomy    TaxonomyConfig   `yaml:"taxonomy" toml:"taxonomy"`
	Identifiers IdentifierConfig `yaml:"identifiers" toml:"identifiers"`
	Definitions DefinitionConfig `yaml:"definitions" toml:"definitions"`
	Model       ModelConfig      `yaml:"model" toml:"model"`
	Confluence  ConfluenceConfig `yaml:"confluence" toml:"confluence"`
	NATS        NATSConfig       `yaml:"nats" toml:"nats"`
	Metrics     MetricsConfig    `yaml:"metrics" toml:"metrics"`
}

// SourceConfig lists the taxonomy files
type SourceConfig struct {
	// Patterns are file paths or doublestar globs (e.g. "taxonomy/**/*.ttl")
	Patterns []string `yaml:"patterns" toml:"patterns"`
}

// OutputConfig configures generated artifacts
type OutputConfig struct {
	// Dir is the output directory
	Dir string `yaml:"dir" toml:"dir"`
	// Title is the heading of the aggregate document
	Title string `yaml:"title" toml:"title"`
	// MarkdownFile is the Markdown document name
	MarkdownFile string `yaml:"markdown_file" toml:"markdown_file"`
	// StorageFile is the all-in-one Confluence storage document name
	StorageFile string `yaml:"storage_file" toml:"storage_file"`
	// PagesDir holds one storage document per concept scheme
	PagesDir string `yaml:"pages_dir" toml:"pages_dir"`
	// RewriteFile is the rewritten graph written by the rewrite command
	RewriteFile string `yaml:"rewrite_file" toml:"rewrite_file"`
}

// TaxonomyConfig configures labels and rendering
type TaxonomyConfig struct {
	// Language is the preferred label language (BCP 47)
	Language string `yaml:"language" toml:"language"`
	// ReferencePredicate links a concept to its reference entity
	ReferencePredicate string `yaml:"reference_predicate" toml:"reference_predicate"`
	// MaxHeading clamps heading levels (1-6)
	MaxHeading int `yaml:"max_heading" toml:"max_heading"`
	// IndexTitle is the heading of the index section
	IndexTitle string `yaml:"index_title" toml:"index_title"`
	// HidePreview drops the per-concept RDF preview from Confluence output
	HidePreview bool `yaml:"hide_rdf_preview" toml:"hide_rdf_preview"`
}

// IdentifierConfig configures concept identifiers
type IdentifierConfig struct {
	// Strategy is "random" or "hash"
	Strategy string `yaml:"strategy" toml:"strategy"`
	// StorePath is a SQLite file persisting identifiers across runs (empty = none)
	StorePath string `yaml:"store_path" toml:"store_path"`
	// Namespace is the IRI namespace of rewritten concepts
	Namespace string `yaml:"namespace" toml:"namespace"`
	// Prefix is bound to Namespace in rewritten output
	Prefix string `yaml:"prefix" toml:"prefix"`
	// Format is the rewrite serialization: turtle, ntriples or jsonld
	Format string `yaml:"format" toml:"format"`
}

// DefinitionConfig configures generated definitions
type DefinitionConfig struct {
	// Enabled turns on generation for concepts without a definition
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// Timeout bounds each generation
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
	// Concurrency bounds parallel generations
	Concurrency int `yaml:"concurrency" toml:"concurrency"`
	// RatePerSecond limits requests to the model (0 = unlimited)
	RatePerSecond float64 `yaml:"rate_per_second" toml:"rate_per_second"`
	// WriteBack stores generated definitions in rewritten output
	WriteBack bool `yaml:"write_back" toml:"write_back"`
}

// ModelConfig configures the LLM model settings
type ModelConfig struct {
	// Provider is openai, ollama or anthropic
	Provider string `yaml:"provider" toml:"provider"`
	// URL is the API base URL
	URL string `yaml:"url" toml:"url"`
	// Name is the model to use (e.g., "gpt-4o")
	Name string `yaml:"name" toml:"name"`
	// APIKey authenticates against the provider
	APIKey string `yaml:"api_key" toml:"api_key"`
	// Temperature controls randomness (0.0-1.0, default: 0.2)
	Temperature float64 `yaml:"temperature" toml:"temperature"`
	// MaxTokens bounds each definition
	MaxTokens int `yaml:"max_tokens" toml:"max_tokens"`
	// MaxAttempts bounds attempts per definition (1 = no retry)
	MaxAttempts int `yaml:"max_attempts" toml:"max_attempts"`
}

// ConfluenceConfig configures publishing
type ConfluenceConfig struct {
	BaseURL   string `yaml:"base_url" toml:"base_url"`
	Space     string `yaml:"space" toml:"space"`
	ParentID  string `yaml:"parent_id" toml:"parent_id"`
	ParentURL string `yaml:"parent_url" toml:"parent_url"`
	User      string `yaml:"user" toml:"user"`
	Token     string `yaml:"token" toml:"token"`
	// PageTitle is the title of the entry page
	PageTitle string `yaml:"page_title" toml:"page_title"`
	// UpdateIfExists updates a page of the same title instead of creating
	UpdateIfExists bool `yaml:"update_if_exists" toml:"update_if_exists"`
	// PerScheme adds one child page per concept scheme
	PerScheme bool `yaml:"per_scheme" toml:"per_scheme"`
}

// NATSConfig configures the published page ledger
type NATSConfig struct {
	// URL is the NATS server URL (empty = no ledger)
	URL string `yaml:"url" toml:"url"`
	// Bucket is the KV bucket name
	Bucket string `yaml:"bucket" toml:"bucket"`
}

// MetricsConfig configures run metrics
type MetricsConfig struct {
	// Textfile is written after each run (empty = disabled)
	Textfile string `yaml:"textfile" toml:"textfile"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:          "skosdoc_out",
			Title:        "SKOS Vocabulary — Documentation",
			MarkdownFile: "taxonomy.md",
			StorageFile:  "storage_all_in_one.xhtml",
			PagesDir:     "pages",
			RewriteFile:  "taxonomy_updated.ttl",
		},
		Taxonomy: TaxonomyConfig{
			Language:           "en",
			ReferencePredicate: skos.DefaultReference,
			MaxHeading:         6,
			IndexTitle:         "Taxonomy Index",
		},
		Identifiers: IdentifierConfig{
			Strategy:  identifier.StrategyRandom,
			Namespace: skos.DefaultReferenceNamespace,
			Prefix:    "apmwg",
			Format:    "turtle",
		},
		Definitions: DefinitionConfig{
			Enabled:     false,
			Timeout:     30 * time.Second,
			Concurrency: 4,
		},
		Model: ModelConfig{
			Provider:    "openai",
			URL:         "https://api.openai.com/v1",
			Name:        "gpt-4o",
			Temperature: 0.2,
			MaxTokens:   80,
			MaxAttempts: 1,
		},
		Confluence: ConfluenceConfig{
			PageTitle: "SKOS Vocabulary",
		},
		NATS: NATSConfig{
			Bucket: "SKOSDOC_PAGES",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := language.Parse(c.Taxonomy.Language); err != nil {
		return fmt.Errorf("taxonomy.language %q: %w", c.Taxonomy.Language, err)
	}
	if c.Taxonomy.MaxHeading < 1 || c.Taxonomy.MaxHeading > 6 {
		return fmt.Errorf("taxonomy.max_heading must be between 1 and 6")
	}
	if _, err := identifier.StrategyFor(c.Identifiers.Strategy); err != nil {
		return fmt.Errorf("identifiers.strategy: %w", err)
	}
	if c.Identifiers.Namespace == "" {
		return fmt.Errorf("identifiers.namespace is required")
	}
	if c.Definitions.Enabled {
		if c.Model.URL == "" {
			return fmt.Errorf("model.url is required when definitions are enabled")
		}
		if c.Model.Name == "" {
			return fmt.Errorf("model.name is required when definitions are enabled")
		}
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be between 0 and 1")
	}
	if c.Definitions.Concurrency < 1 {
		return fmt.Errorf("definitions.concurrency must be at least 1")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML or TOML file, chosen by
// extension.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isTOML(path) {
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		return config, nil
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// SaveToFile saves configuration to a YAML or TOML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(c)
		data = []byte(sb.String())
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). Booleans can only be switched on by a merge.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Source.Patterns) > 0 {
		c.Source.Patterns = other.Source.Patterns
	}

	mergeString(&c.Output.Dir, other.Output.Dir)
	mergeString(&c.Output.Title, other.Output.Title)
	mergeString(&c.Output.MarkdownFile, other.Output.MarkdownFile)
	mergeString(&c.Output.StorageFile, other.Output.StorageFile)
	mergeString(&c.Output.PagesDir, other.Output.PagesDir)
	mergeString(&c.Output.RewriteFile, other.Output.RewriteFile)

	mergeString(&c.Taxonomy.Language, other.Taxonomy.Language)
	mergeString(&c.Taxonomy.ReferencePredicate, other.Taxonomy.ReferencePredicate)
	mergeString(&c.Taxonomy.IndexTitle, other.Taxonomy.IndexTitle)
	if other.Taxonomy.MaxHeading != 0 {
		c.Taxonomy.MaxHeading = other.Taxonomy.MaxHeading
	}
	c.Taxonomy.HidePreview = c.Taxonomy.HidePreview || other.Taxonomy.HidePreview

	mergeString(&c.Identifiers.Strategy, other.Identifiers.Strategy)
	mergeString(&c.Identifiers.StorePath, other.Identifiers.StorePath)
	mergeString(&c.Identifiers.Namespace, other.Identifiers.Namespace)
	mergeString(&c.Identifiers.Prefix, other.Identifiers.Prefix)
	mergeString(&c.Identifiers.Format, other.Identifiers.Format)

	c.Definitions.Enabled = c.Definitions.Enabled || other.Definitions.Enabled
	c.Definitions.WriteBack = c.Definitions.WriteBack || other.Definitions.WriteBack
	if other.Definitions.Timeout != 0 {
		c.Definitions.Timeout = other.Definitions.Timeout
	}
	if other.Definitions.Concurrency != 0 {
		c.Definitions.Concurrency = other.Definitions.Concurrency
	}
	if other.Definitions.RatePerSecond != 0 {
		c.Definitions.RatePerSecond = other.Definitions.RatePerSecond
	}

	mergeString(&c.Model.Provider, other.Model.Provider)
	mergeString(&c.Model.URL, other.Model.URL)
	mergeString(&c.Model.Name, other.Model.Name)
	mergeString(&c.Model.APIKey, other.Model.APIKey)
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.MaxTokens != 0 {
		c.Model.MaxTokens = other.Model.MaxTokens
	}
	if other.Model.MaxAttempts != 0 {
		c.Model.MaxAttempts = other.Model.MaxAttempts
	}

	mergeString(&c.Confluence.BaseURL, other.Confluence.BaseURL)
	mergeString(&c.Confluence.Space, other.Confluence.Space)
	mergeString(&c.Confluence.ParentID, other.Confluence.ParentID)
	mergeString(&c.Confluence.ParentURL, other.Confluence.ParentURL)
	mergeString(&c.Confluence.User, other.Confluence.User)
	mergeString(&c.Confluence.Token, other.Confluence.Token)
	mergeString(&c.Confluence.PageTitle, other.Confluence.PageTitle)
	c.Confluence.UpdateIfExists = c.Confluence.UpdateIfExists || other.Confluence.UpdateIfExists
	c.Confluence.PerScheme = c.Confluence.PerScheme || other.Confluence.PerScheme

	mergeString(&c.NATS.URL, other.NATS.URL)
	mergeString(&c.NATS.Bucket, other.NATS.Bucket)

	mergeString(&c.Metrics.Textfile, other.Metrics.Textfile)
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}
