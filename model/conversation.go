package model

import "time"

const (
	//conversation lifecycle
	StatusActive    = "active"
	StatusStopped   = "stopped"
	StatusConverted = "converted"

	//funnel stages, advanced strictly forward except reschedule/cancel
	StageGreeting    = "greeting"
	StageBudget      = "budget"
	StageAppointment = "appointment"
	StageName        = "name"
	StageDatetime    = "datetime"
	StageConfirmed   = "confirmed"

	//captured intents
	IntentTestDrive = "test_drive"
	IntentCallback  = "callback"

	//message roles
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Customer struct {
	Id          uint32 `storm:"id,increment"`
	Phone       string `storm:"unique"`
	Name        string
	LastContact time.Time
	CreatedAt   time.Time `storm:"index"`
}

type Conversation struct {
	Id           uint32 `storm:"id,increment"`
	Phone        string `storm:"index"`
	Status       string `storm:"index"`
	Stage        string
	VehicleType  string
	Budget       string
	BudgetAmount int
	Intent       string
	CustomerName string
	Datetime     string
	StartedAt    time.Time `storm:"index"`
	UpdatedAt    time.Time
}

type Message struct {
	Id             uint32 `storm:"id,increment"`
	ConversationId uint32 `storm:"index"`
	Phone          string `storm:"index"`
	Role           string
	Content        string
	CreatedAt      time.Time `storm:"index"`
}
