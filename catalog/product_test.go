package catalog

import "testing"

// testProduct builds a normalized product with the variant/image layout
// most query tests need: three variants over two options, three images.
func testProduct() *Product {
	return &Product{
		ID:    "1001",
		Title: "Ceramic Brake Pad Set",
		Options: []Option{
			{Name: "Size", Position: 1, Values: []string{"Small", "Large"}},
			{Name: "Color", Position: 2, Values: []string{"Red", "Blue"}},
		},
		Variants: []Variant{
			{ID: 11, Title: "Small / Red", OptionValues: []OptionValue{
				{Name: "Size", Value: "Small"}, {Name: "Color", Value: "Red"},
			}},
			{ID: 12, Title: "Small / Blue", OptionValues: []OptionValue{
				{Name: "Size", Value: "Small"}, {Name: "Color", Value: "Blue"},
			}},
			{ID: 13, Title: "Large / Red", OptionValues: []OptionValue{
				{Name: "Size", Value: "Large"}, {Name: "Color", Value: "Red"},
			}},
		},
		Images: []Image{
			{ID: 1, Src: "https://cdn.example.com/default.jpg", VariantIDs: []int64{}},
			{ID: 2, Src: "https://cdn.example.com/v99.jpg", VariantIDs: []int64{99}},
		},
	}
}

func TestImageForVariant(t *testing.T) {
	p := testProduct()

	t.Run("explicit association wins", func(t *testing.T) {
		img := p.ImageForVariant(&Variant{ID: 99})
		if img == nil || img.ID != 2 {
			t.Fatalf("got %+v, want image 2", img)
		}
	})

	t.Run("unreferenced variant falls back to first image", func(t *testing.T) {
		img := p.ImageForVariant(&Variant{ID: 5})
		if img == nil || img.ID != 1 {
			t.Fatalf("got %+v, want image 1", img)
		}
	})

	t.Run("fallback ignores first image's own associations", func(t *testing.T) {
		q := &Product{Images: []Image{
			{ID: 7, VariantIDs: []int64{42}},
			{ID: 8, VariantIDs: []int64{43}},
		}}
		img := q.ImageForVariant(&Variant{ID: 99})
		if img == nil || img.ID != 7 {
			t.Fatalf("got %+v, want image 7 even though it lists other variants", img)
		}
	})

	t.Run("no images returns nil not fallback", func(t *testing.T) {
		q := &Product{}
		if img := q.ImageForVariant(&Variant{ID: 11}); img != nil {
			t.Fatalf("got %+v, want nil", img)
		}
	})

	t.Run("nil variant panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic for nil variant")
			}
		}()
		p.ImageForVariant(nil)
	})
}

func TestVariantForOptionValues(t *testing.T) {
	p := testProduct()

	tests := []struct {
		name   string
		values []OptionValue
		wantID int64 // 0 means nil result
	}{
		{"exact match second variant", []OptionValue{{Value: "Small"}, {Value: "Blue"}}, 12},
		{"exact match third variant", []OptionValue{{Value: "Large"}, {Value: "Red"}}, 13},
		{"first full match wins", []OptionValue{{Value: "Small"}, {Value: "Red"}}, 11},
		{"no match", []OptionValue{{Value: "Large"}, {Value: "Green"}}, 0},
		{"prefix query matches first prefix holder", []OptionValue{{Value: "Small"}}, 11},
		{"longer query than any variant", []OptionValue{{Value: "Small"}, {Value: "Blue"}, {Value: "Steel"}}, 0},
		{"nil query", nil, 0},
		{"empty query matches nothing", []OptionValue{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.VariantForOptionValues(tt.values)
			if tt.wantID == 0 {
				if got != nil {
					t.Fatalf("got variant %d, want nil", got.ID)
				}
				return
			}
			if got == nil {
				t.Fatalf("got nil, want variant %d", tt.wantID)
			}
			if got.ID != tt.wantID {
				t.Errorf("got variant %d, want %d", got.ID, tt.wantID)
			}
		})
	}

	t.Run("name at a position is not verified", func(t *testing.T) {
		// Values line up positionally even though the names do not; the
		// matcher is value-only.
		got := p.VariantForOptionValues([]OptionValue{
			{Name: "Material", Value: "Small"},
			{Name: "Finish", Value: "Blue"},
		})
		if got == nil || got.ID != 12 {
			t.Fatalf("got %+v, want variant 12", got)
		}
	})
}

func TestHasImage(t *testing.T) {
	if !testProduct().HasImage() {
		t.Error("HasImage() = false, want true")
	}
	if (&Product{}).HasImage() {
		t.Error("HasImage() = true for product with no images")
	}
	blank := &Product{Images: []Image{{ID: 1}}}
	if blank.HasImage() {
		t.Error("HasImage() = true for image with empty src")
	}
}

func TestHasDefaultVariant(t *testing.T) {
	p := &Product{Variants: []Variant{{ID: 1, Title: "Default Title"}}}
	if !p.HasDefaultVariant() {
		t.Error("HasDefaultVariant() = false, want true")
	}
	if testProduct().HasDefaultVariant() {
		t.Error("HasDefaultVariant() = true for multi-variant product")
	}
	named := &Product{Variants: []Variant{{ID: 1, Title: "Front"}}}
	if named.HasDefaultVariant() {
		t.Error("HasDefaultVariant() = true for single named variant")
	}
}

func TestVariantOptionValue(t *testing.T) {
	v := &testProduct().Variants[1]

	if got := v.OptionValue("Color"); got != "Blue" {
		t.Errorf("OptionValue(Color) = %q, want Blue", got)
	}
	if got := v.OptionValue("Material"); got != "" {
		t.Errorf("OptionValue(Material) = %q, want empty", got)
	}
}
