package models

import "time"

// AgeSnapshot is the age of one flock on a digest day, archived for history.
type AgeSnapshot struct {
	Date      time.Time `bson:"date" json:"date"`
	Flock     string    `bson:"flock" json:"flock"`
	HatchDate time.Time `bson:"hatch_date" json:"hatch_date"`
	TotalDays int       `bson:"total_days" json:"total_days"`
	Weeks     int       `bson:"weeks" json:"weeks"`
	ExtraDays int       `bson:"extra_days" json:"extra_days"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
