// Package pricing computes order amounts. Prices are pure functions of the
// service variant and data volume; no state is involved.
package pricing

import (
	"fmt"

	"github.com/vitorynet/configbot/internal/catalog"
)

// Amounts are in toman.
const (
	perGBRate      = 3000
	vlessSurcharge = 20000
)

// Price computes the order amount for a service variant and data volume.
// The volume is not checked against the offered option sets; any positive
// volume gets the formula result. An unknown variant is a programming error
// since variant keys only ever come from keyboards this process generated.
func Price(variant catalog.Variant, volumeGB int) (int64, error) {
	if volumeGB <= 0 {
		return 0, fmt.Errorf("pricing: non-positive volume %d", volumeGB)
	}
	switch variant {
	case catalog.VariantVmess:
		return int64(volumeGB) * perGBRate, nil
	case catalog.VariantVless:
		return int64(volumeGB)*perGBRate + vlessSurcharge, nil
	default:
		return 0, fmt.Errorf("pricing: unknown variant %q", variant)
	}
}
