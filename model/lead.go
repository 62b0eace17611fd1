package model

import "time"

// Appointment is the terminal record of a test-drive booking, written once per conversation.
type Appointment struct {
	Id           uint32 `storm:"id,increment"`
	Phone        string `storm:"index"`
	Name         string
	VehicleType  string
	Budget       string
	BudgetAmount int
	Datetime     string
	CreatedAt    time.Time `storm:"index"`
}

// Callback is the terminal record of a requested sales call, written once per conversation.
type Callback struct {
	Id           uint32 `storm:"id,increment"`
	Phone        string `storm:"index"`
	Name         string
	VehicleType  string
	Budget       string
	BudgetAmount int
	Datetime     string
	CreatedAt    time.Time `storm:"index"`
}

// AnalyticsEvent is an append-only fact row, never mutated.
type AnalyticsEvent struct {
	Id        uint32 `storm:"id,increment"`
	EventType string `storm:"index"`
	Phone     string `storm:"index"`
	Data      string //JSON payload
	CreatedAt time.Time `storm:"index"`
}
