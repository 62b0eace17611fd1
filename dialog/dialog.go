// Package dialog implements the scripted sales-funnel state machine behind Sarah's
// SMS replies. Respond is a pure transition function: it never touches storage, it
// returns the field delta, the reply text and the side effects for the caller to run.
package dialog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/firstfin/sarah/model"
)

// Lead carries the accumulated slots into an appointment or callback record.
type Lead struct {
	Phone        string
	Name         string
	VehicleType  string
	Budget       string
	BudgetAmount int
	Datetime     string
}

type Event struct {
	Type    string
	Payload map[string]interface{}
}

type Notification struct {
	Subject string
	Body    string
}

// Result is everything one dialogue turn produces.
type Result struct {
	Updates      map[string]interface{} //allow-listed conversation fields
	Reply        string
	Appointment  *Lead
	Callback     *Lead
	CustomerName string //set on the customer record when non-empty
	Events       []Event
	Notify       []Notification
}

func (r *Result) set(field string, value interface{}) {
	if r.Updates == nil {
		r.Updates = map[string]interface{}{}
	}
	r.Updates[field] = value
}

func (r *Result) logEvent(eventType string, payload map[string]interface{}) {
	r.Events = append(r.Events, Event{Type: eventType, Payload: payload})
}

type input struct {
	conv  model.Conversation
	phone string
	msg   string
	lower string //lower-cased message
	trim  string //lower-cased and trimmed
}

// Respond computes the reply for one inbound message given the persisted conversation
// state. Override rules run first in priority order, then the stage handlers, then the
// self-healing fallback.
func Respond(conv model.Conversation, phone, message string) Result {
	in := input{
		conv:  conv,
		phone: phone,
		msg:   message,
		lower: strings.ToLower(message),
		trim:  strings.TrimSpace(strings.ToLower(message)),
	}

	for _, rule := range overrideRules {
		if rule.match(in) {
			return rule.apply(in)
		}
	}

	switch {
	case conv.Stage == model.StageGreeting || conv.VehicleType == "":
		return respondGreeting(in)
	case conv.Stage == model.StageBudget && conv.Budget == "":
		return respondBudget(in)
	case conv.Stage == model.StageAppointment && conv.Intent == "":
		return respondAppointment(in)
	case conv.Stage == model.StageName && conv.CustomerName == "":
		return respondName(in)
	case conv.Stage == model.StageDatetime && conv.Datetime == "":
		return respondDatetime(in)
	case conv.Stage == model.StageConfirmed:
		return respondConfirmed(in)
	}

	return fallback(in)
}

type vehicleKeyword struct {
	words   []string
	vehicle string
	reply   string
}

var vehicleKeywords = []vehicleKeyword{
	{[]string{"suv"}, "SUV", "Great choice! SUVs are very popular. What's your budget range? (e.g., $15k, $25k, $40k, $60k+)"},
	{[]string{"truck"}, "Truck", "Awesome! Trucks are great. What's your budget range? (e.g., $15k, $25k, $40k, $60k+)"},
	{[]string{"sedan"}, "Sedan", "Perfect! Sedans are reliable. What's your budget range? (e.g., $15k, $25k, $40k, $60k+)"},
	{[]string{"sports", "coupe", "convertible"}, "Sports Car", "Exciting! Sports cars are fun. What's your budget range? (e.g., $25k, $40k, $60k+)"},
	{[]string{"minivan", "van"}, "Minivan", "Great for families! What's your budget range? (e.g., $20k, $30k, $50k+)"},
	{[]string{"electric", "ev", "hybrid"}, "Electric/Hybrid", "Excellent choice! Eco-friendly options. What's your budget range? (e.g., $30k, $50k, $70k+)"},
	{[]string{"car", "vehicle", "yes", "interested", "want", "looking"}, "Vehicle", "Great! What's your budget range? (e.g., $15k, $25k, $40k, $60k+)"},
}

func respondGreeting(in input) Result {
	for _, kw := range vehicleKeywords {
		for _, word := range kw.words {
			if strings.Contains(in.lower, word) {
				var res Result
				res.set("vehicle_type", kw.vehicle)
				res.set("stage", model.StageBudget)
				res.Reply = kw.reply
				return res
			}
		}
	}
	return Result{Reply: "What type of vehicle interests you? We have SUVs, Trucks, Sedans, Coupes, and more!"}
}

var digitsRx = regexp.MustCompile(`\d+`)

// parseBudgetAmount extracts the dollar figure from free text. The k-multiplier
// applies to bare numbers under 1000; a comma-grouped number re-extracts from the
// comma-stripped message and wins over the k result (last write wins).
func parseBudgetAmount(msg, lower string) int {
	amount := 0
	if match := digitsRx.FindString(msg); match != "" {
		amount, _ = strconv.Atoi(match)

		if strings.Contains(lower, "k") && amount < 1000 {
			amount *= 1000
		}

		if strings.Contains(msg, ",") {
			stripped := strings.ReplaceAll(msg, ",", "")
			if match := digitsRx.FindString(stripped); match != "" {
				amount, _ = strconv.Atoi(match)
			}
		}
	}
	return amount
}

// bucketBudget is total over all integers: boundaries at 30000 and 50000, both
// inclusive to the middle bucket.
func bucketBudget(amount int) string {
	switch {
	case amount < 30000:
		return "Under $30k"
	case amount <= 50000:
		return "$30k-$50k"
	default:
		return "$50k+"
	}
}

const choicePrompt = "Would you like to:\n1️⃣ Book a test drive\n2️⃣ Schedule a call back\nJust reply 1 or 2!"

func respondBudget(in input) Result {
	amount := parseBudgetAmount(in.msg, in.lower)

	if amount > 0 && amount < 5000 {
		return Result{Reply: fmt.Sprintf("Just to clarify - is that $%d your total budget or down payment? Most vehicles start around $15k. Reply with your full budget (e.g., $20k, $30k).", amount)}
	}

	if amount > 0 {
		var res Result
		res.set("budget", bucketBudget(amount))
		res.set("budget_amount", amount)
		res.set("stage", model.StageAppointment)
		rounded := int(math.Round(float64(amount) / 1000))
		res.Reply = fmt.Sprintf("Perfect! I have some great %ss around $%dk. %s", in.conv.VehicleType, rounded, choicePrompt)
		return res
	}

	if containsAny(in.lower, "cheap", "low", "budget") {
		var res Result
		res.set("budget", "Under $30k")
		res.set("stage", model.StageAppointment)
		res.Reply = "Got it! I have great budget-friendly options. " + choicePrompt
		return res
	}

	if containsAny(in.lower, "high", "premium", "luxury") {
		var res Result
		res.set("budget", "$50k+")
		res.set("stage", model.StageAppointment)
		res.Reply = "Excellent! I have some premium options. " + choicePrompt
		return res
	}

	return Result{Reply: "What's your budget? Just give me a number like $15k, $20k, $40k, etc."}
}

func respondAppointment(in input) Result {
	if containsAny(in.lower, "1", "test", "drive", "appointment", "visit") {
		var res Result
		res.set("intent", model.IntentTestDrive)
		res.set("stage", model.StageName)
		res.Reply = "Awesome! What's your name so I can get this set up for you? 😊"
		return res
	}

	if containsAny(in.lower, "2", "call", "phone", "talk") {
		var res Result
		res.set("intent", model.IntentCallback)
		res.set("stage", model.StageName)
		res.Reply = "Great! What's your name so I can set this up? 😊"
		return res
	}

	//soft nudge, no state change
	if containsAny(in.lower, "maybe", "not sure", "think", "later", "busy", "soon") {
		name := in.conv.CustomerName
		if name != "" {
			name = " " + name
		}
		return Result{Reply: fmt.Sprintf("No rush at all%s! A test drive is only 30 mins and we work around your schedule 😊 Whenever you're ready:\n1️⃣ Book a test drive\n2️⃣ Quick call with our team\nJust reply 1 or 2!", name)}
	}

	return Result{Reply: choicePrompt}
}

var (
	namePrefixRx = regexp.MustCompile(`(?i)^.*?(?:my name is|i'm|i am)`)
	nameCharsRx  = regexp.MustCompile(`[^a-zA-Z\s'-]`)
)

// ExtractName pulls a display name out of a free-text reply: strips lead-in
// phrases, keeps letters/spaces/hyphen/apostrophe, takes at most two words and
// capitalizes the first letter.
func ExtractName(message string) string {
	name := strings.TrimSpace(message)
	lower := strings.ToLower(name)
	if strings.Contains(lower, "my name is") || strings.Contains(lower, "i'm") || strings.Contains(lower, "i am") {
		name = strings.TrimSpace(namePrefixRx.ReplaceAllString(name, ""))
	}

	name = strings.TrimSpace(nameCharsRx.ReplaceAllString(name, ""))
	parts := strings.Fields(name)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	name = strings.Join(parts, " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func respondName(in input) Result {
	name := ExtractName(in.msg)

	var res Result
	res.set("customer_name", name)
	res.set("stage", model.StageDatetime)
	res.CustomerName = name

	if in.conv.Intent == model.IntentTestDrive {
		res.Reply = fmt.Sprintf("Nice to meet you, %s! When works best for your test drive? (e.g., Tomorrow afternoon, Saturday morning, Next week)", name)
	} else {
		res.Reply = fmt.Sprintf("Nice to meet you, %s! When's the best time to call you? (e.g., Tomorrow at 2pm, Friday morning, This evening)", name)
	}
	return res
}

// NormalizeDatetime folds vague temporal phrases into canonical labels; anything
// unrecognized is stored verbatim.
func NormalizeDatetime(message string) string {
	lower := strings.TrimSpace(strings.ToLower(message))

	dayPart := func(day string) string {
		switch {
		case strings.Contains(lower, "morning"):
			return day + " morning"
		case strings.Contains(lower, "afternoon"):
			return day + " afternoon"
		case strings.Contains(lower, "evening"):
			return day + " evening"
		default:
			return day + " afternoon"
		}
	}

	switch {
	case strings.Contains(lower, "today"):
		return dayPart("Today")
	case strings.Contains(lower, "tomorrow"):
		return dayPart("Tomorrow")
	case strings.Contains(lower, "this weekend") || lower == "weekend":
		return "This weekend"
	case strings.Contains(lower, "next week"):
		return "Next week"
	case strings.Contains(lower, "this morning"):
		return "Today morning"
	case strings.Contains(lower, "this afternoon"):
		return "Today afternoon"
	case strings.Contains(lower, "this evening") || strings.Contains(lower, "tonight"):
		return "Today evening"
	}
	return message
}

func respondDatetime(in input) Result {
	when := NormalizeDatetime(in.msg)

	var res Result
	res.set("datetime", when)
	res.set("stage", model.StageConfirmed)
	res.set("status", model.StatusConverted)

	lead := Lead{
		Phone:        in.phone,
		Name:         in.conv.CustomerName,
		VehicleType:  in.conv.VehicleType,
		Budget:       in.conv.Budget,
		BudgetAmount: in.conv.BudgetAmount,
		Datetime:     when,
	}

	if in.conv.Intent == model.IntentTestDrive {
		res.Appointment = &lead
		res.logEvent("appointment_booked", leadPayload(lead))
		res.Notify = append(res.Notify, Notification{
			Subject: "📅 Test Drive: " + lead.Name,
			Body:    fmt.Sprintf("New appointment!\nCustomer: %s\nPhone: %s\nDate/Time: %s", lead.Name, lead.Phone, when),
		})
		res.Reply = fmt.Sprintf("✅ Perfect %s! I've booked your test drive for %s.\n\n📍 We're in Calgary, Alberta and we deliver all across Canada!\n📧 Confirmation sent!\n\nLooking forward to seeing you! Reply STOP to opt out.", lead.Name, when)
		return res
	}

	res.Callback = &lead
	res.logEvent("callback_requested", leadPayload(lead))
	res.Notify = append(res.Notify, Notification{
		Subject: "📞 Callback: " + lead.Name,
		Body:    fmt.Sprintf("Callback requested!\nCustomer: %s\nPhone: %s\nTime: %s", lead.Name, lead.Phone, when),
	})
	res.Reply = fmt.Sprintf("✅ Got it %s! One of our managers will call you %s with all the details.\n\nWe're excited to help you find your perfect %s!\n\nTalk soon! Reply STOP to opt out.", lead.Name, when, lead.VehicleType)
	return res
}

func respondConfirmed(in input) Result {
	conv := in.conv

	if containsAny(in.lower, "reschedule", "change", "different time") {
		var res Result
		res.set("stage", model.StageDatetime)
		res.set("datetime", "")
		res.Reply = fmt.Sprintf("No problem %s! What time works better for you? (e.g., Friday afternoon, Next Tuesday, This weekend)", conv.CustomerName)
		return res
	}

	if strings.Contains(in.lower, "cancel") {
		var res Result
		res.set("status", model.StatusActive)
		res.set("stage", model.StageDatetime)
		res.set("datetime", "")
		res.set("intent", conv.Intent)
		res.Reply = fmt.Sprintf("No worries %s! Would you like to pick a different time instead? Just tell me when works better and I'll get you rebooked! 😊", conv.CustomerName)
		return res
	}

	if containsAny(in.lower, "inventory", "photos", "pictures", "see vehicles") {
		lead := Lead{
			Phone:        in.phone,
			Name:         conv.CustomerName,
			VehicleType:  conv.VehicleType,
			Budget:       conv.Budget,
			BudgetAmount: conv.BudgetAmount,
			Datetime:     "ASAP - Customer requested inventory photos",
		}
		var res Result
		res.Callback = &lead
		res.logEvent("inventory_requested", leadPayload(lead))
		res.Notify = append(res.Notify, Notification{
			Subject: "📸 Inventory Photos Requested: " + lead.Name,
			Body:    fmt.Sprintf("Customer wants photos!\nCustomer: %s\nPhone: %s\nLooking for: %s / %s\nAction: Send inventory photos ASAP", lead.Name, lead.Phone, orDefault(lead.VehicleType, "Not specified"), orDefault(lead.Budget, "Budget TBD")),
		})
		res.Reply = fmt.Sprintf("Great question %s! I've let our team know! A manager will text you photos of %s in your %s range shortly! 📸", conv.CustomerName, orDefault(conv.VehicleType, "vehicles"), orDefault(conv.Budget, "budget"))
		return res
	}

	return Result{Reply: fmt.Sprintf("Thanks %s! We're all set for %s. 📅\n\nNeed to:\n• RESCHEDULE - Change your appointment time\n• INVENTORY - See photos of available vehicles\n• Just reply if you have questions!\n\nWe're in Calgary and deliver across Canada! 🚗", conv.CustomerName, conv.Datetime)}
}

// fallback re-derives the right prompt from the first unset slot in funnel order,
// so the conversation can always self-heal.
func fallback(in input) Result {
	conv := in.conv
	switch {
	case conv.VehicleType == "" || conv.Stage == model.StageGreeting:
		return Result{Reply: "What type of vehicle are you looking for? We have SUVs, Trucks, Sedans, EVs and more! 🚗"}
	case conv.Budget == "" || conv.Stage == model.StageBudget:
		return Result{Reply: fmt.Sprintf("What budget are you working with for your %s? (e.g., $15k, $25k, $40k, $60k+)", orDefault(conv.VehicleType, "vehicle"))}
	case conv.Stage == model.StageAppointment && conv.Intent == "":
		return Result{Reply: "Ready to take the next step? Reply:\n1️⃣ Book a test drive\n2️⃣ Schedule a call back"}
	case conv.Stage == model.StageName && conv.CustomerName == "":
		return Result{Reply: "What's your name so I can get this set up for you? 😊"}
	case conv.Stage == model.StageDatetime && conv.Datetime == "":
		if conv.Intent == model.IntentTestDrive {
			return Result{Reply: "When works best for your test drive? (e.g., Tomorrow afternoon, Saturday morning)"}
		}
		return Result{Reply: "When's the best time to call you? (e.g., Tomorrow at 2pm, Friday morning)"}
	}
	return Result{Reply: fmt.Sprintf("Hi %s! Is there anything else I can help you with? 😊", orDefault(conv.CustomerName, "there"))}
}

func containsAny(s string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func leadPayload(lead Lead) map[string]interface{} {
	return map[string]interface{}{
		"phone":        lead.Phone,
		"name":         lead.Name,
		"vehicleType":  lead.VehicleType,
		"budget":       lead.Budget,
		"budgetAmount": lead.BudgetAmount,
		"datetime":     lead.Datetime,
	}
}
