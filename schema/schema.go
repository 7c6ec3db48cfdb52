package schema

import (
	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
)

// ============================================================================
// SCHEMA — Describes the sales table to the reasoning service
// ============================================================================
// Built from a loaded Store. The translator renders it into a prompt and
// the offline provider scans questions against it. It carries only the
// vocabulary and metadata, never transaction rows.
// ============================================================================

// Config describes the complete shape of the dataset.
type Config struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Dimensions  []DimensionMeta `json:"dimensions"`
	Metrics     []MetricMeta    `json:"metrics"`

	Comparisons  []string `json:"comparisons"`
	RankingVerbs []string `json:"rankingVerbs"`

	RowCount int `json:"rowCount"`
	MinYear  int `json:"minYear,omitempty"`
	MaxYear  int `json:"maxYear,omitempty"`
}

// DimensionMeta describes a filterable, groupable column.
type DimensionMeta struct {
	Key         dataset.Dimension `json:"key"`
	DisplayName string            `json:"displayName"`
	Description string            `json:"description,omitempty"`
	Synonyms    []string          `json:"synonyms,omitempty"`
	Values      []string          `json:"values"`
	IsTemporal  bool              `json:"isTemporal,omitempty"`
}

// MetricMeta describes a computable metric.
type MetricMeta struct {
	Key         engine.Metric `json:"key"`
	DisplayName string        `json:"displayName"`
	Description string        `json:"description"`
	Synonyms    []string      `json:"synonyms,omitempty"`
}

// Option customizes a Config built by FromStore.
type Option func(*Config)

// WithName overrides the dataset name shown to the reasoning service.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithDescription sets a free-text dataset description.
func WithDescription(desc string) Option {
	return func(c *Config) {
		c.Description = desc
	}
}

var dimensionDocs = map[dataset.Dimension]struct {
	description string
	synonyms    []string
	temporal    bool
}{
	dataset.Brand:    {"Brand the product is sold under", []string{"brand", "label"}, false},
	dataset.Category: {"Product category", []string{"product", "category"}, false},
	dataset.Area:     {"Sales region", []string{"region", "area", "zone"}, false},
	dataset.City:     {"City of the store", []string{"city", "town"}, false},
	dataset.Month:    {"Calendar month as a 3-letter code", []string{"month"}, true},
	dataset.Year:     {"Calendar year", []string{"year"}, true},
}

// Metrics describes every metric the engine supports.
var Metrics = []MetricMeta{
	{
		Key:         engine.MetricSales,
		DisplayName: "Sales",
		Description: "Net sum of sales_value (returns are negative)",
		Synonyms:    []string{"sales", "revenue", "value", "turnover"},
	},
	{
		Key:         engine.MetricActiveStores,
		DisplayName: "Active Stores",
		Description: "Number of stores whose net sales in the window are strictly positive",
		Synonyms:    []string{"active stores", "stores", "store count", "outlets"},
	},
	{
		Key:         engine.MetricAverageSales,
		DisplayName: "Average Sales",
		Description: "Mean sales_value per transaction row",
		Synonyms:    []string{"average", "avg", "mean"},
	},
}

// Comparisons are the comparison modes offered to the reasoning service.
var Comparisons = []string{"yoy", "pop"}

// RankingVerbs are the ranking words the extractor understands.
var RankingVerbs = []string{"top", "highest", "best", "largest", "bottom", "lowest", "worst", "smallest"}

// FromStore builds the dataset description from a loaded store.
func FromStore(store *dataset.Store, opts ...Option) *Config {
	vocab := store.Vocabulary()
	sum := store.Summary()

	cfg := &Config{
		Name:         "Sales Transactions",
		Metrics:      Metrics,
		Comparisons:  Comparisons,
		RankingVerbs: RankingVerbs,
		RowCount:     sum.TotalRows,
		MinYear:      sum.MinYear,
		MaxYear:      sum.MaxYear,
	}
	for _, d := range dataset.Dimensions {
		doc := dimensionDocs[d]
		cfg.Dimensions = append(cfg.Dimensions, DimensionMeta{
			Key:         d,
			DisplayName: DisplayName(string(d)),
			Description: doc.description,
			Synonyms:    doc.synonyms,
			Values:      vocab.Values(d),
			IsTemporal:  doc.temporal,
		})
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = string(d.Key)
	}
	return keys
}

// MetricKeys returns all metric keys.
func (c Config) MetricKeys() []string {
	keys := make([]string, len(c.Metrics))
	for i, m := range c.Metrics {
		keys[i] = string(m.Key)
	}
	return keys
}

// Dimension looks up a dimension's metadata.
func (c Config) Dimension(key dataset.Dimension) (DimensionMeta, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionMeta{}, false
}

// Vocabulary rebuilds the per-dimension value lists.
func (c Config) Vocabulary() dataset.Vocabulary {
	v := make(dataset.Vocabulary, len(c.Dimensions))
	for _, d := range c.Dimensions {
		v[d.Key] = d.Values
	}
	return v
}
