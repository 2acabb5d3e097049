package models

import "time"

// FlockRecord is a named flock and the date it was hatched.
type FlockRecord struct {
	Name      string
	HatchDate time.Time
}

// FlockAge is one row of a batch age computation. Error is set instead of the age
// fields when the flock cannot be aged at the requested date.
type FlockAge struct {
	Name      string `json:"name"`
	HatchDate string `json:"hatch_date"`
	Target    string `json:"target_date"`
	TotalDays int    `json:"total_days"`
	Weeks     int    `json:"weeks"`
	ExtraDays int    `json:"extra_days"`
	Error     string `json:"error,omitempty"`
}

// FlockDate is one row of a batch target-date computation.
type FlockDate struct {
	Name       string `json:"name"`
	HatchDate  string `json:"hatch_date"`
	TargetDate string `json:"target_date"`
	Weekday    string `json:"weekday"`
	TotalDays  int    `json:"total_days"`
}
