package pricing

import (
	"sort"
	"testing"

	"github.com/vitorynet/configbot/internal/catalog"
)

func TestPrice(t *testing.T) {
	cases := []struct {
		name    string
		variant catalog.Variant
		volume  int
		want    int64
		wantErr bool
	}{
		{name: "vmess 20GB", variant: catalog.VariantVmess, volume: 20, want: 60000},
		{name: "vless 50GB", variant: catalog.VariantVless, volume: 50, want: 170000},
		{name: "vmess 100GB", variant: catalog.VariantVmess, volume: 100, want: 300000},
		{name: "vless 200GB", variant: catalog.VariantVless, volume: 200, want: 620000},
		{name: "zero volume", variant: catalog.VariantVmess, volume: 0, wantErr: true},
		{name: "negative volume", variant: catalog.VariantVless, volume: -5, wantErr: true},
		{name: "unknown variant", variant: catalog.Variant("trojan"), volume: 50, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Price(tc.variant, tc.volume)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Price(%q, %d): expected error, got %d", tc.variant, tc.volume, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Price(%q, %d): %v", tc.variant, tc.volume, err)
			}
			if got != tc.want {
				t.Errorf("Price(%q, %d) = %d, want %d", tc.variant, tc.volume, got, tc.want)
			}
		})
	}
}

// Price is strictly increasing in volume for every offered variant.
func TestPriceMonotonicInVolume(t *testing.T) {
	var volumes []int
	seen := map[int]bool{}
	for _, months := range catalog.Durations {
		for _, v := range catalog.VolumesFor(months) {
			if !seen[v] {
				seen[v] = true
				volumes = append(volumes, v)
			}
		}
	}
	sort.Ints(volumes)

	for _, variant := range catalog.Variants {
		var prev int64
		for i, v := range volumes {
			p, err := Price(variant, v)
			if err != nil {
				t.Fatalf("Price(%q, %d): %v", variant, v, err)
			}
			if i > 0 && p <= prev {
				t.Errorf("Price(%q, %d) = %d, not above %d", variant, v, p, prev)
			}
			prev = p
		}
	}
}

func TestPriceIndependentOfDuration(t *testing.T) {
	// The duration never enters the formula; only variant and volume do.
	a, err := Price(catalog.VariantVmess, 50)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Price(catalog.VariantVmess, 50)
	if err != nil {
		t.Fatal(err)
	}
	if a != b || a != 150000 {
		t.Errorf("expected stable 150000, got %d and %d", a, b)
	}
}
