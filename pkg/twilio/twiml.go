package twilio

import (
	"github.com/twilio/twilio-go/twiml"
)

// EmptyTwiML returns an empty <Response/> document. Status callbacks are
// always acknowledged with this so the provider never treats a processing
// problem on our side as a delivery failure worth retrying.
func EmptyTwiML() string {
	doc, err := twiml.Voice(nil)
	if err != nil {
		return `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`
	}
	return doc
}

// GreetingTwiML returns a voice instruction document that speaks the
// configured greeting to the caller.
func GreetingTwiML(greeting string) string {
	if greeting == "" {
		greeting = "Hello, thank you for calling. Please hold while we connect you."
	}
	say := &twiml.VoiceSay{
		Message: greeting,
	}
	doc, err := twiml.Voice([]twiml.Element{say})
	if err != nil {
		return EmptyTwiML()
	}
	return doc
}
