package geo

// Building match classification constants.
const (
	ClassRooftop  = "rooftop"
	ClassParcel   = "parcel"
	ClassAdjacent = "adjacent"
	ClassDistant  = "distant"
)

// Distance thresholds for classification (meters).
const (
	rooftopCenterThreshold = 25.0  // within box AND center distance <= 25m
	adjacentEdgeThreshold  = 100.0 // outside box AND edge distance <= 100m
)

// Classify returns how closely a site matches the building it was sized against.
// Rules:
//   - rooftop: within bounding box AND center distance <= 25m
//   - parcel: within bounding box AND center distance > 25m
//   - adjacent: outside bounding box AND edge distance <= 100m
//   - distant: outside bounding box AND edge distance > 100m
func Classify(isWithin bool, centerMeters, edgeMeters float64) string {
	if isWithin {
		if centerMeters <= rooftopCenterThreshold {
			return ClassRooftop
		}
		return ClassParcel
	}
	if edgeMeters <= adjacentEdgeThreshold {
		return ClassAdjacent
	}
	return ClassDistant
}
