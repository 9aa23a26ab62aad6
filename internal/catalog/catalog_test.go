package catalog

import (
	"reflect"
	"testing"
)

func TestLocationLabel(t *testing.T) {
	label, ok := LocationLabel("france")
	if !ok {
		t.Fatal("france should be a known region")
	}
	if label != "🇫🇷 فرانسه" {
		t.Errorf("unexpected label %q", label)
	}

	if _, ok := LocationLabel("germany"); ok {
		t.Error("germany should not be a known region")
	}
}

func TestKnownVariant(t *testing.T) {
	if !KnownVariant("vmess") || !KnownVariant("vless") {
		t.Error("vmess and vless must both be known")
	}
	if KnownVariant("trojan") {
		t.Error("trojan must not be known")
	}
}

func TestVolumesFor(t *testing.T) {
	oneMonth := VolumesFor(1)
	if !reflect.DeepEqual(oneMonth, []int{20, 30, 50, 80, 100}) {
		t.Errorf("one-month volumes = %v", oneMonth)
	}

	// Every other duration gets the larger tier set.
	for _, months := range []int{3, 6, 12} {
		got := VolumesFor(months)
		if !reflect.DeepEqual(got, []int{50, 100, 200}) {
			t.Errorf("VolumesFor(%d) = %v", months, got)
		}
	}
}
