package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  玫瑰 ", "玫瑰"},
		{"ｒｏｓｅ", "rose"},
		{"\tＡＢＣ１２３\n", "ABC123"},
		{"ﾊﾞﾗ", "バラ"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMemoryFindExact(t *testing.T) {
	m := NewMemory(
		Gift{Name: "rose", UnitPrice: decimal.NewFromInt(1)},
		Gift{Name: "rose", UnitPrice: decimal.NewFromInt(2)},
	)
	ctx := context.Background()

	g, err := m.FindExact(ctx, "rose")
	if err != nil {
		t.Fatal(err)
	}
	if !g.UnitPrice.Equal(decimal.NewFromInt(1)) {
		t.Errorf("duplicate names should resolve to the first gift, got price %s", g.UnitPrice)
	}
	if _, err := m.FindExact(ctx, "Rose"); !errors.Is(err, ErrNotFound) {
		t.Errorf("exact lookup must be case-sensitive, err = %v", err)
	}
	if _, err := m.FindExact(ctx, " rose"); !errors.Is(err, ErrNotFound) {
		t.Errorf("exact lookup must not trim, err = %v", err)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
gifts:
  - name: 玫瑰
    price: "5.20"
    image_url: https://example.com/rose.png
  - name: cake
    price: 12
`)
	gifts, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(gifts) != 2 {
		t.Fatalf("len = %d, want 2", len(gifts))
	}
	if gifts[0].Name != "玫瑰" || !gifts[0].UnitPrice.Equal(decimal.RequireFromString("5.2")) {
		t.Errorf("gifts[0] = %+v", gifts[0])
	}
	if gifts[0].ImageURL != "https://example.com/rose.png" {
		t.Errorf("image url = %q", gifts[0].ImageURL)
	}
	if !gifts[1].UnitPrice.Equal(decimal.NewFromInt(12)) {
		t.Errorf("gifts[1] price = %s", gifts[1].UnitPrice)
	}
}

func TestParseRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing name", "gifts:\n  - price: \"1\"\n"},
		{"zero price", "gifts:\n  - name: x\n    price: \"0\"\n"},
		{"negative price", "gifts:\n  - name: x\n    price: \"-3\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}
