package dto

import "time"

type Id struct {
	Id uint32 `json:"id"`
}

type Reply struct {
	Reply string `json:"reply"`
}

type InboundMessage struct {
	From string `json:"From"`
	Body string `json:"Body"`
}

type StartSMS struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

type ManualReply struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

type VoiceDrop struct {
	Phone  string `json:"phone"`
	Speech string `json:"speech"`
}

type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type ConversationSummary struct {
	Id           uint32    `json:"id"`
	Phone        string    `json:"phone"`
	Status       string    `json:"status"`
	Stage        string    `json:"stage"`
	VehicleType  string    `json:"vehicleType,omitempty"`
	Budget       string    `json:"budget,omitempty"`
	CustomerName string    `json:"customerName,omitempty"`
	Datetime     string    `json:"datetime,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ConversationDetail struct {
	ConversationSummary
	Messages []ChatMessage `json:"messages"`
}

type DashboardStats struct {
	Conversations map[string]int `json:"conversations"`
	Messages      int            `json:"messages"`
	Customers     int            `json:"customers"`
	Appointments  int            `json:"appointments"`
	Callbacks     int            `json:"callbacks"`
	OptOuts       int            `json:"optOuts"`
}

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type CampaignRequest struct {
	CampaignName string    `json:"campaignName"`
	Template     string    `json:"template"`
	Contacts     []Contact `json:"contacts"`
}

type SkippedContact struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
}

type CampaignResult struct {
	CampaignName string           `json:"campaignName"`
	Scheduled    int              `json:"scheduled"`
	Skipped      []SkippedContact `json:"skipped,omitempty"`
	FirstSendAt  time.Time        `json:"firstSendAt"`
	LastSendAt   time.Time        `json:"lastSendAt"`
}

type ParsedContacts struct {
	Contacts []Contact `json:"contacts"`
	Errors   []string  `json:"errors,omitempty"`
}

type BulkStatus struct {
	Running bool           `json:"running"`
	Paused  bool           `json:"paused"`
	Counts  map[string]int `json:"counts"`
}

type Cancelled struct {
	Cancelled int `json:"cancelled"`
}

type Purged struct {
	Removed int `json:"removed"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type DeskProfile struct {
	Id          uint32 `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type DeskData struct {
	Settings    string `json:"settings,omitempty"`
	Inventory   string `json:"inventory,omitempty"`
	CRM         string `json:"crm,omitempty"`
	DealLog     string `json:"dealLog,omitempty"`
	LenderRates string `json:"lenderRates,omitempty"`
	Scenarios   string `json:"scenarios,omitempty"`
}
