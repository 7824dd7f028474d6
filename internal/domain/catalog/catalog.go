package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidCatalog  = errors.New("invalid catalog")
)

//go:embed seed.yaml
var defaultSeed string

// Product is a catalog entry. Products never change once the catalog is built.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	MinQuantity int             `json:"min_quantity,omitempty"`
}

// Catalog is an immutable, ordered product list with lookup by id
type Catalog struct {
	products []Product
	byID     map[string]int
}

// New validates products and builds a catalog that keeps their order
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("%w: product #%d: %v", ErrInvalidCatalog, i+1, err)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %q", ErrInvalidCatalog, p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

func validate(p Product) error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return errors.New("id is required")
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%s: name is required", p.ID)
	case strings.TrimSpace(p.Unit) == "":
		return fmt.Errorf("%s: unit is required", p.ID)
	case p.Price.IsNegative():
		return fmt.Errorf("%s: price must not be negative", p.ID)
	case p.MinQuantity < 0:
		return fmt.Errorf("%s: min_quantity must not be negative", p.ID)
	}
	return nil
}

// seedProduct mirrors the YAML layout; prices are decimal strings
type seedProduct struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Unit        string `yaml:"unit"`
	Image       string `yaml:"image"`
	Description string `yaml:"description"`
	MinQuantity int    `yaml:"min_quantity"`
}

// Load parses a YAML seed
func Load(r io.Reader) (*Catalog, error) {
	var seed []seedProduct
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	products := make([]Product, 0, len(seed))
	for _, s := range seed {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: product %q: price %q: %v", ErrInvalidCatalog, s.ID, s.Price, err)
		}
		products = append(products, Product{
			ID:          s.ID,
			Name:        s.Name,
			Price:       price,
			Unit:        s.Unit,
			Image:       s.Image,
			Description: s.Description,
			MinQuantity: s.MinQuantity,
		})
	}
	return New(products)
}

func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the catalog built into the binary
func Default() *Catalog {
	c, err := Load(strings.NewReader(defaultSeed))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog seed: %v", err))
	}
	return c
}

func (c *Catalog) Get(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// All returns the products in seed order
func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Len() int { return len(c.products) }

// Search matches term case-insensitively against name and description.
// An empty term returns every product; no match returns an empty, non-nil slice.
func (c *Catalog) Search(term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return c.All()
	}

	out := []Product{}
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out
}
