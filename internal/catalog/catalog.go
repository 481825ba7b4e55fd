package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// DefaultSuggestionLimit caps the names offered when a gift lookup misses.
const DefaultSuggestionLimit = 5

var ErrNotFound = errors.New("gift not found")

type Gift struct {
	ID        int64           `json:"id" yaml:"-"`
	Name      string          `json:"name" yaml:"name"`
	UnitPrice decimal.Decimal `json:"unit_price" yaml:"price"`
	ImageURL  string          `json:"image_url,omitempty" yaml:"image_url"`
}

// Normalize applies NFKC and trims surrounding whitespace.
func Normalize(name string) string {
	return strings.TrimSpace(norm.NFKC.String(name))
}

// Memory is an in-process catalog. Exact lookups on duplicated names return
// the first gift that was added.
type Memory struct {
	mu    sync.RWMutex
	gifts []Gift
}

func NewMemory(gifts ...Gift) *Memory {
	m := &Memory{}
	for _, g := range gifts {
		m.Add(g)
	}
	return m
}

func (m *Memory) Add(g Gift) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == 0 {
		g.ID = int64(len(m.gifts) + 1)
	}
	m.gifts = append(m.gifts, g)
}

func (m *Memory) FindExact(ctx context.Context, name string) (*Gift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.gifts {
		if g.Name == name {
			found := g
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindSuggestions(ctx context.Context, normalized string, limit int) ([]string, error) {
	gifts, err := m.ListGifts(ctx, normalized, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(gifts))
	for _, g := range gifts {
		names = append(names, g.Name)
	}
	return names, nil
}

// ListGifts returns gifts whose name contains pattern (case-insensitive),
// ordered by name. A limit <= 0 means no limit.
func (m *Memory) ListGifts(ctx context.Context, pattern string, limit int) ([]Gift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(pattern)
	var out []Gift
	for _, g := range m.gifts {
		if strings.Contains(strings.ToLower(g.Name), needle) {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type seedFile struct {
	Gifts []Gift `yaml:"gifts"`
}

// LoadFile reads a YAML price list:
//
//	gifts:
//	  - name: 玫瑰
//	    price: "5.20"
//	    image_url: https://example.com/rose.png
func LoadFile(path string) ([]Gift, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gift catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]Gift, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing gift catalog: %w", err)
	}
	for i, g := range f.Gifts {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("gift #%d: name is required", i+1)
		}
		if !g.UnitPrice.IsPositive() {
			return nil, fmt.Errorf("gift %q: price must be positive", g.Name)
		}
		f.Gifts[i].UnitPrice = g.UnitPrice.Round(4)
	}
	return f.Gifts, nil
}
