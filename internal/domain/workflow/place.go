package workflow

// Place represents a workflow state in the service request lifecycle
type Place string

const (
	PlaceDraft      Place = "draft"
	PlaceScheduled  Place = "scheduled"
	PlaceApproved   Place = "approved"
	PlaceAssigned   Place = "assigned"
	PlaceInProgress Place = "in_progress"
	PlaceReview     Place = "review"
	PlaceCompleted  Place = "completed"
	PlaceCancelled  Place = "cancelled"
	PlaceArchived   Place = "archived"
)

var validPlaces = map[Place]bool{
	PlaceDraft:      true,
	PlaceScheduled:  true,
	PlaceApproved:   true,
	PlaceAssigned:   true,
	PlaceInProgress: true,
	PlaceReview:     true,
	PlaceCompleted:  true,
	PlaceCancelled:  true,
	PlaceArchived:   true,
}

// String returns the string representation of the place
func (p Place) String() string {
	return string(p)
}

// IsValid returns true if the place is a valid workflow place
func (p Place) IsValid() bool {
	return validPlaces[p]
}
