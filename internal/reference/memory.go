// Package reference provides the reference population the match scorer runs
// against: an in-memory store loaded from YAML and a PostgreSQL store.
//
// Both stores enumerate records in a pinned order (load order for memory,
// uq_id for PostgreSQL), so partial-match tie-breaks are reproducible.
package reference

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"

	"github.com/JonMunkholm/checkbench/internal/core"
	"gopkg.in/yaml.v3"
)

// MemoryStore is an immutable, indexed reference population.
type MemoryStore struct {
	records []core.ReferenceRecord
	byKey   map[string]int
	byName  map[string]int
}

// NewMemoryStore normalizes and indexes records. When several records share
// an identifier or name, lookups return the earliest.
func NewMemoryStore(records []core.ReferenceRecord) *MemoryStore {
	s := &MemoryStore{
		records: make([]core.ReferenceRecord, 0, len(records)),
		byKey:   make(map[string]int),
		byName:  make(map[string]int),
	}
	for _, r := range records {
		r = r.Normalize()
		i := len(s.records)
		s.records = append(s.records, r)

		index(s.byKey, r.CustomerNumber, i)
		index(s.byKey, r.CustomerID, i)
		index(s.byName, strings.ToUpper(r.Name), i)
		index(s.byName, r.SearchName, i)
	}
	return s
}

func index(m map[string]int, key string, i int) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = i
	}
}

// Len returns the population size.
func (s *MemoryStore) Len() int { return len(s.records) }

// Records returns a copy of the normalized records in load order.
func (s *MemoryStore) Records() []core.ReferenceRecord {
	return slices.Clone(s.records)
}

// FindByKey returns the first record whose customer number or id equals id.
func (s *MemoryStore) FindByKey(_ context.Context, id string) (core.ReferenceRecord, bool, error) {
	return s.lookup(s.byKey, id)
}

// FindByExactName returns the first record whose uppercased name or search
// name equals name.
func (s *MemoryStore) FindByExactName(_ context.Context, name string) (core.ReferenceRecord, bool, error) {
	return s.lookup(s.byName, name)
}

func (s *MemoryStore) lookup(m map[string]int, key string) (core.ReferenceRecord, bool, error) {
	if key == "" {
		return core.ReferenceRecord{}, false, nil
	}
	i, ok := m[key]
	if !ok {
		return core.ReferenceRecord{}, false, nil
	}
	return s.records[i], true, nil
}

// All yields records in load order.
func (s *MemoryStore) All(ctx context.Context) iter.Seq2[core.ReferenceRecord, error] {
	return func(yield func(core.ReferenceRecord, error) bool) {
		for _, r := range s.records {
			if err := ctx.Err(); err != nil {
				yield(core.ReferenceRecord{}, err)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// yamlFile is the on-disk layout of a reference population.
type yamlFile struct {
	Records []core.ReferenceRecord `yaml:"records"`
}

// LoadYAML reads a population document:
//
//	records:
//	  - uqId: R1
//	    name: Ivanov Ivan
//	    customerNumber: "111"
//	    source: Black List
func LoadYAML(r io.Reader) (*MemoryStore, error) {
	var doc yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode reference yaml: %w", err)
	}

	for i, rec := range doc.Records {
		if strings.TrimSpace(rec.Name) == "" {
			return nil, fmt.Errorf("reference record %d (%s): name is required", i+1, rec.UqID)
		}
		if rec.Source != "" && !rec.Source.Valid() {
			return nil, fmt.Errorf("reference record %d (%s): unknown source %q", i+1, rec.UqID, rec.Source)
		}
	}
	return NewMemoryStore(doc.Records), nil
}

// LoadYAMLFile opens path and calls LoadYAML.
func LoadYAMLFile(path string) (*MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference file: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}
