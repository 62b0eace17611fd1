package dialog

import (
	"fmt"
	"regexp"

	"github.com/firstfin/sarah/model"
)

// Override rules run before the stage handlers, in priority order. Compliance
// rules (STOP/START) come first so nothing downstream can shadow them.
type overrideRule struct {
	name  string
	match func(in input) bool
	apply func(in input) Result
}

var stopWordRx = regexp.MustCompile(`^stop[^a-z]`)

var softNegatives = []string{
	"not interested", "no thanks", "no thank you", "leave me alone",
	"don't text", "dont text", "don't message", "dont message",
	"wrong number", "go away", "remove me", "do not contact",
}

func isStopRequest(in input) bool {
	if in.trim == "stop" || stopWordRx.MatchString(in.trim) {
		return true
	}
	if containsAny(in.lower, "unsubscribe", "opt out", "opt-out") {
		return true
	}
	if in.trim == "no" {
		return true
	}
	return containsAny(in.lower, softNegatives...)
}

func isStartRequest(in input) bool {
	return in.trim == "start" || containsAny(in.lower, "resubscribe", "opt in", "opt-in")
}

var overrideRules = []overrideRule{
	{
		name: "stop",
		match: func(in input) bool {
			return isStopRequest(in)
		},
		apply: func(in input) Result {
			var res Result
			res.set("status", model.StatusStopped)
			res.logEvent("conversation_stopped", map[string]interface{}{"phone": in.phone, "message": in.msg})
			res.Reply = "You've been unsubscribed. Reply START anytime to hear about our latest deals. Take care! 👋"
			return res
		},
	},
	{
		name: "start",
		match: func(in input) bool {
			return isStartRequest(in)
		},
		apply: func(in input) Result {
			var res Result
			res.set("status", model.StatusActive)
			res.set("stage", model.StageGreeting)
			res.logEvent("conversation_restarted", map[string]interface{}{"phone": in.phone})
			res.Reply = "Welcome back! 🎉 I'm Sarah from First Financial. What type of vehicle are you looking for? We have SUVs, Trucks, Sedans and more!"
			return res
		},
	},
	{
		// a stopped conversation only ever answers with the resubscribe reminder
		name: "stopped",
		match: func(in input) bool {
			return in.conv.Status == model.StatusStopped
		},
		apply: func(in input) Result {
			return Result{Reply: "You're currently unsubscribed. Reply START to receive messages again."}
		},
	},
	{
		name: "location",
		match: func(in input) bool {
			return containsAny(in.lower, "where", "location", "address", "located", "dealership")
		},
		apply: func(in input) Result {
			var res Result
			callbackEscape(in, &res)
			res.Reply = "We're located in Calgary, Alberta! 📍 And great news - we deliver all across Canada, so distance is never an issue. " + namePrompt(in.conv)
			return res
		},
	},
	{
		name: "human",
		match: func(in input) bool {
			return containsAny(in.lower, "manager", "human", "real person", "speak to someone", "talk to someone", "details", "more info", "more information")
		},
		apply: func(in input) Result {
			var res Result
			callbackEscape(in, &res)
			res.logEvent("human_requested", map[string]interface{}{"phone": in.phone, "message": in.msg})
			res.Notify = append(res.Notify, Notification{
				Subject: "🙋 Customer Wants a Human: " + orDefault(in.conv.CustomerName, in.phone),
				Body:    fmt.Sprintf("Customer asked for a person.\nPhone: %s\nMessage: %s", in.phone, in.msg),
			})
			res.Reply = "Absolutely! One of our managers will reach out with all the details. 😊 " + namePrompt(in.conv)
			return res
		},
	},
	{
		name: "financing",
		match: func(in input) bool {
			return containsAny(in.lower, "financing", "finance", "credit", "loan", "monthly payment", "apr", "interest rate", "trade-in", "trade in")
		},
		apply: func(in input) Result {
			var res Result
			callbackEscape(in, &res)
			res.Reply = "Great news - we work with all credit situations: good, bad, or no credit. Our finance team gets most customers approved same-day! 💪 " + namePrompt(in.conv)
			return res
		},
	},
	{
		name: "price",
		match: func(in input) bool {
			return in.conv.Budget == "" && containsAny(in.lower, "how much", "price", "cost", "pricing", "cheapest")
		},
		apply: func(in input) Result {
			var res Result
			res.set("stage", model.StageBudget)
			if in.conv.VehicleType != "" {
				res.Reply = fmt.Sprintf("Great question! %ss vary by trim and features. What budget are you working with? (e.g., $15k, $25k, $40k, $60k+)", in.conv.VehicleType)
			} else {
				res.Reply = "We have vehicles across a wide range! To find you the best match, what's your budget in mind? (e.g., $15k, $25k, $40k, $60k+)"
			}
			return res
		},
	},
	{
		name: "make-model",
		match: func(in input) bool {
			if in.conv.VehicleType != "" {
				return false
			}
			return containsAny(in.lower, "f-150", "f150", "silverado", "sierra", "ram ", "tacoma", "tundra", "tesla", "model 3", "model y", "rav4", "cr-v", "crv", "highlander", "explorer", "tahoe")
		},
		apply: func(in input) Result {
			vehicle := "SUV"
			switch {
			case containsAny(in.lower, "f-150", "f150", "silverado", "sierra", "ram ", "tacoma", "tundra"):
				vehicle = "Truck"
			case containsAny(in.lower, "tesla", "model 3", "model y"):
				vehicle = "Electric/Hybrid"
			}
			var res Result
			res.set("vehicle_type", vehicle)
			res.set("stage", model.StageBudget)
			res.Reply = fmt.Sprintf("Nice pick! We usually have a few of those on the lot. What's your budget range for your %s? (e.g., $15k, $25k, $40k, $60k+)", vehicle)
			return res
		},
	},
	{
		name: "availability",
		match: func(in input) bool {
			return in.conv.Stage == model.StageGreeting && containsAny(in.lower, "available", "availability", "in stock", "do you have", "got any", "what do you have")
		},
		apply: func(in input) Result {
			var res Result
			callbackEscape(in, &res)
			res.Reply = "Yes! We have a great selection across all makes and models. 🚗 I can have a manager send you our current inventory. " + namePrompt(in.conv)
			return res
		},
	},
}

// callbackEscape routes a high-intent question to a manager callback without
// clobbering slots the funnel already captured.
func callbackEscape(in input, res *Result) {
	if in.conv.Intent == "" {
		res.set("intent", model.IntentCallback)
	}
	if in.conv.CustomerName == "" {
		res.set("stage", model.StageName)
	}
}

func namePrompt(conv model.Conversation) string {
	if conv.CustomerName == "" {
		return "What's your name so I can set that up?"
	}
	return nextStepHint(conv)
}

// nextStepHint tacks the funnel's next question onto a deflection answer so the
// conversation keeps moving.
func nextStepHint(conv model.Conversation) string {
	switch {
	case conv.VehicleType == "":
		return "What type of vehicle are you looking for?"
	case conv.Budget == "":
		return "What's your budget range?"
	case conv.Stage == model.StageAppointment:
		return "Would you like to book a test drive (1) or schedule a call back (2)?"
	case conv.Stage == model.StageName:
		return "What's your name?"
	case conv.Stage == model.StageDatetime:
		return "When works best for you?"
	default:
		return "Anything else I can help with?"
	}
}
