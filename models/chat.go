package models

import "time"

type Conversation struct {
	ID           string    `bson:"id" json:"id"`
	Participants []string  `bson:"participants" json:"participants"`
	BookingID    string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	LastMessage  string    `bson:"lastMessage" json:"lastMessage"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Message struct {
	ID             string    `bson:"id" json:"id"`
	ConversationID string    `bson:"conversation" json:"conversation"`
	Sender         string    `bson:"sender" json:"sender"`
	Content        string    `bson:"content" json:"content"`
	ContentType    string    `bson:"contentType" json:"contentType"`
	BookingID      string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	BookingStatus  string    `bson:"bookingStatus,omitempty" json:"bookingStatus,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}
