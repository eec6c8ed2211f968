package channelcoder

import "github.com/cloudinary/fuif/internal/maniac"

// Predict returns predictor's guess for a pixel given its causal
// neighbors, the channel's zero value (predictor 0) and its value range
// (predictor 6's clamp). Division in predictors 1 and 5 truncates toward
// zero, matching plain integer division rather than the round-toward
// negative-infinity rule used elsewhere (splitval, squeeze halving).
func Predict(predictor int, left, top, topleft, topright, zero, minVal, maxVal int32) int32 {
	switch predictor {
	case 0:
		return zero
	case 1:
		return (left + top) / 2
	case 2:
		return maniac.Median3(left+top-topleft, left, top)
	case 3:
		return left
	case 4:
		return top
	case 5:
		return (left + topleft + top + topright) / 4
	case 6:
		return maniac.Clamp(left+top-topleft, minVal, maxVal)
	default:
		return maniac.Median3(left+top-topleft, left, top)
	}
}
