// Package catalog holds the fixed category-to-partition lookup table. Each
// opportunity category is backed by its own collection (partition) in the
// document store; ids are only unique within a partition.
package catalog

import (
	"embed"
	"log"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/categories.yaml
var categoriesYAML embed.FS

type Registry struct {
	Categories []CategoryConfig `yaml:"categories"`
	// FallbackPartition receives records with unrecognized categories.
	FallbackPartition string `yaml:"fallback_partition"`
}

type CategoryConfig struct {
	Label     string `yaml:"label"`
	Partition string `yaml:"partition"`
}

var (
	loadOnce sync.Once
	registry Registry
)

func load() Registry {
	loadOnce.Do(func() {
		data, err := categoriesYAML.ReadFile("config/categories.yaml")
		if err != nil {
			log.Fatalf("category registry missing from binary: %v", err)
		}
		if err := yaml.Unmarshal(data, &registry); err != nil {
			log.Fatalf("category registry is invalid yaml: %v", err)
		}
		if registry.FallbackPartition == "" {
			registry.FallbackPartition = "opportunities"
		}
	})
	return registry
}

// PartitionFor maps a category label to its backing partition name.
// Matching is case-insensitive; unknown labels map to the generic fallback.
func PartitionFor(category string) string {
	reg := load()
	needle := strings.ToLower(strings.TrimSpace(category))
	for _, c := range reg.Categories {
		if strings.ToLower(c.Label) == needle {
			return c.Partition
		}
	}
	return reg.FallbackPartition
}

// GenericPartition returns the fallback partition name.
func GenericPartition() string {
	return load().FallbackPartition
}

// IsGenericPartition reports whether p is the fallback partition. Records in
// the fallback partition are already authoritative; there is no richer
// record to fetch for them.
func IsGenericPartition(p string) bool {
	return p == load().FallbackPartition
}

// Partitions returns every known partition name, fallback excluded.
func Partitions() []string {
	reg := load()
	out := make([]string, 0, len(reg.Categories))
	for _, c := range reg.Categories {
		out = append(out, c.Partition)
	}
	return out
}

// Labels returns the category labels in registry order.
func Labels() []string {
	reg := load()
	out := make([]string, 0, len(reg.Categories))
	for _, c := range reg.Categories {
		out = append(out, c.Label)
	}
	return out
}

// Table returns the full label-to-partition mapping for API consumers.
func Table() map[string]string {
	reg := load()
	out := make(map[string]string, len(reg.Categories))
	for _, c := range reg.Categories {
		out[c.Label] = c.Partition
	}
	return out
}
