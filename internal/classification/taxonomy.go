package classification

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML string

// Taxonomy is the ordered set of categories a classifier may assign.
// The reserved "Otros" category is always present.
type Taxonomy struct {
	index      map[string]int
	categories []model.CategoryDefinition
}

// NewTaxonomy builds a taxonomy from definitions in order. Names must be
// unique and non-empty. Otros is appended when missing.
func NewTaxonomy(defs ...model.CategoryDefinition) (*Taxonomy, error) {
	t := &Taxonomy{index: make(map[string]int, len(defs)+1)}
	for _, def := range defs {
		def.Name = strings.TrimSpace(def.Name)
		if def.Name == "" {
			return nil, fmt.Errorf("%w: empty category name", common.ErrInvalidCategory)
		}
		if _, dup := t.index[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", common.ErrInvalidCategory, def.Name)
		}
		t.index[def.Name] = len(t.categories)
		t.categories = append(t.categories, def)
	}
	t.ensureReserved()
	return t, nil
}

// DefaultTaxonomy returns the built-in Spanish taxonomy.
func DefaultTaxonomy() *Taxonomy {
	t, err := LoadTaxonomy(strings.NewReader(defaultTaxonomyYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
	}
	return t
}

// LoadTaxonomy reads a YAML mapping of category name to definition. The
// mapping order is kept.
func LoadTaxonomy(r io.Reader) (*Taxonomy, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return NewTaxonomy()
		}
		return nil, fmt.Errorf("%w: taxonomy: %w", common.ErrInvalidConfig, err)
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: taxonomy must be a mapping of category names", common.ErrInvalidConfig)
	}

	defs := make([]model.CategoryDefinition, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var def model.CategoryDefinition
		if value.Kind != yaml.ScalarNode || value.Tag != "!!null" {
			if err := value.Decode(&def); err != nil {
				return nil, fmt.Errorf("%w: category %q: %w", common.ErrInvalidConfig, key.Value, err)
			}
		}
		def.Name = key.Value
		defs = append(defs, def)
	}
	return NewTaxonomy(defs...)
}

// LoadTaxonomyFile reads a taxonomy document from path.
func LoadTaxonomyFile(path string) (*Taxonomy, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open taxonomy: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadTaxonomy(f)
}

// Categories returns the definitions in order.
func (t *Taxonomy) Categories() []model.CategoryDefinition {
	out := make([]model.CategoryDefinition, len(t.categories))
	copy(out, t.categories)
	return out
}

// Names returns the category names in order.
func (t *Taxonomy) Names() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the named category.
func (t *Taxonomy) Lookup(name string) (model.CategoryDefinition, bool) {
	i, ok := t.index[name]
	if !ok {
		return model.CategoryDefinition{}, false
	}
	return t.categories[i], true
}

// Has reports whether name is a known category.
func (t *Taxonomy) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Remove deletes a category. Otros cannot be removed.
func (t *Taxonomy) Remove(name string) error {
	if name == model.OtherCategory {
		return fmt.Errorf("%w: %s cannot be removed", common.ErrReservedCategory, name)
	}
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", common.ErrInvalidCategory, name)
	}
	t.categories = append(t.categories[:i], t.categories[i+1:]...)
	t.reindex()
	return nil
}

// Rename changes a category's name in place. Otros cannot be renamed and
// no category can take its name.
func (t *Taxonomy) Rename(from, to string) error {
	to = strings.TrimSpace(to)
	if from == model.OtherCategory || to == model.OtherCategory {
		return fmt.Errorf("%w: %s cannot be renamed", common.ErrReservedCategory, model.OtherCategory)
	}
	i, ok := t.index[from]
	if !ok {
		return fmt.Errorf("%w: %q", common.ErrInvalidCategory, from)
	}
	if to == "" || t.Has(to) {
		return fmt.Errorf("%w: cannot rename to %q", common.ErrInvalidCategory, to)
	}
	t.categories[i].Name = to
	t.reindex()
	return nil
}

func (t *Taxonomy) ensureReserved() {
	if _, ok := t.index[model.OtherCategory]; ok {
		return
	}
	t.index[model.OtherCategory] = len(t.categories)
	t.categories = append(t.categories, model.CategoryDefinition{
		Name:        model.OtherCategory,
		Description: "Movimientos sin una categoría específica",
		Color:       model.DefaultCategoryColor,
		Icon:        model.DefaultCategoryIcon,
	})
}

func (t *Taxonomy) reindex() {
	t.index = make(map[string]int, len(t.categories))
	for i, c := range t.categories {
		t.index[c.Name] = i
	}
}
