package maskfill

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/granule-data/maskfill/internal/raster"
)

// updateObservedStats refreshes the band's observed_max, observed_min
// and observed_mean attributes from the samples that survived masking.
// Fill and NaN samples are not observations; a band left with none drops
// the attributes instead of writing sentinels.
func updateObservedStats(b *raster.Band, fill float64) {
	obs := make([]float64, 0, len(b.Data.Elements))
	for _, v := range b.Data.Elements {
		if v == fill || math.IsNaN(v) {
			continue
		}
		obs = append(obs, v)
	}
	if len(obs) == 0 {
		delete(b.Attrs, "observed_max")
		delete(b.Attrs, "observed_min")
		delete(b.Attrs, "observed_mean")
		return
	}
	b.Attrs["observed_max"] = floats.Max(obs)
	b.Attrs["observed_min"] = floats.Min(obs)
	b.Attrs["observed_mean"] = stat.Mean(obs, nil)
}
