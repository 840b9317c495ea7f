package domain

import "testing"

func fp(v float64) *float64 { return &v }

func TestDiscounted(t *testing.T) {
	cases := []struct {
		name string
		p    Product
		want bool
	}{
		{"no history", Product{Price: 100}, false},
		{"provider original higher", Product{Price: 80, OriginalPrice: fp(120)}, true},
		{"provider original equal", Product{Price: 100, OriginalPrice: fp(100)}, false},
		{"observed previous higher", Product{Price: 80, PreviousPrice: fp(100)}, true},
		{"price went up", Product{Price: 120, PreviousPrice: fp(100)}, false},
		{"either source suffices", Product{Price: 80, OriginalPrice: fp(70), PreviousPrice: fp(90)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Discounted(); got != tc.want {
				t.Errorf("Discounted() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	res := Empty(CodeProviderError, "پیام")
	if res.Products == nil || len(res.Products) != 0 {
		t.Error("Empty must carry a non-nil empty slice so JSON renders []")
	}
	if res.Total != 0 || res.Code != CodeProviderError || res.Message != "پیام" {
		t.Errorf("Empty = %+v", res)
	}
	if res.Source != SourceProvider {
		t.Errorf("Source = %q, want provider", res.Source)
	}
}
