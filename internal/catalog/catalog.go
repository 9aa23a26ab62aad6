// Package catalog defines the fixed, process-wide option sets a buyer picks
// from: server regions, service variants, subscription durations, and the
// duration-dependent data volumes.
package catalog

// Location describes a selectable server region.
type Location struct {
	Code  string
	Label string
}

// Locations lists the offered regions in menu order.
var Locations = []Location{
	{Code: "france", Label: "🇫🇷 فرانسه"},
	{Code: "sweden", Label: "🇸🇪 سوئد"},
	{Code: "austria", Label: "🇦🇹 اتریش"},
	{Code: "netherlands", Label: "🇳🇱 هلند"},
}

// LocationLabel resolves a region code to its display label.
func LocationLabel(code string) (string, bool) {
	for _, loc := range Locations {
		if loc.Code == code {
			return loc.Label, true
		}
	}
	return "", false
}

// Variant identifies a service protocol variant.
type Variant string

const (
	VariantVmess Variant = "vmess"
	VariantVless Variant = "vless"
)

// Variants lists the offered service variants in menu order.
var Variants = []Variant{VariantVmess, VariantVless}

// KnownVariant reports whether v names an offered service variant.
func KnownVariant(v string) bool {
	for _, known := range Variants {
		if string(known) == v {
			return true
		}
	}
	return false
}

// Durations lists the offered subscription lengths in months.
var Durations = []int{1, 3}

// VolumesFor returns the data volume options (GB) offered for the given
// duration. One-month plans get the small-step set; every other duration
// gets the large-step set.
func VolumesFor(months int) []int {
	if months == 1 {
		return []int{20, 30, 50, 80, 100}
	}
	return []int{50, 100, 200}
}
