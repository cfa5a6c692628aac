package audio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

// TimeRegion is a contiguous time span flagged as containing music, in
// seconds from the start of the track. Regions arrive from the detection
// service ordered by start time and non-overlapping; neither property is
// enforced here.
type TimeRegion struct {
	Start float64 `json:"start_time" validate:"gte=0"`
	End   float64 `json:"end_time" validate:"gtfield=Start"`
}

// regionValidator checks per-region sanity (start >= 0, end > start).
var regionValidator = validator.New()

// ParseRegions decodes the detection service's JSON output: an array of
// {"start_time": float, "end_time": float} objects, kept in the order the
// service returned them.
func ParseRegions(r io.Reader) ([]TimeRegion, error) {
	var regions []TimeRegion
	if err := json.NewDecoder(r).Decode(&regions); err != nil {
		return nil, fmt.Errorf("audio: decode detection output: %w", err)
	}

	for i, region := range regions {
		if err := regionValidator.Struct(region); err != nil {
			return nil, fmt.Errorf("audio: detection region %d [%g, %g]: %w",
				i, region.Start, region.End, err)
		}
	}

	return regions, nil
}
