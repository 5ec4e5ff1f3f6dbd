package models

// ListingSummary is the slice of a listing this engine reads; listings are owned elsewhere.
type ListingSummary struct {
	ID        string `bson:"id" json:"id"`
	HostID    string `bson:"hostId" json:"hostId"`
	SpaceType string `bson:"spaceType" json:"spaceType"`
	City      string `bson:"city" json:"city"`
}
