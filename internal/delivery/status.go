package delivery

// Status is a provider delivery status. Values outside the known set are
// carried through unchanged and treated as non-terminal.
type Status string

// Known Twilio message statuses.
const (
	StatusQueued      Status = "queued"
	StatusSending     Status = "sending"
	StatusSent        Status = "sent"
	StatusDelivered   Status = "delivered"
	StatusUndelivered Status = "undelivered"
	StatusFailed      Status = "failed"
)

// Class is the terminal classification of a Status.
type Class int

const (
	// ClassPending means the provider has not reached a decision yet.
	ClassPending Class = iota
	ClassSuccess
	ClassFailure
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassFailure:
		return "failure"
	default:
		return "pending"
	}
}

// Classify maps a status onto success, failure or pending.
func Classify(s Status) Class {
	switch s {
	case StatusSent, StatusDelivered:
		return ClassSuccess
	case StatusUndelivered, StatusFailed:
		return ClassFailure
	default:
		return ClassPending
	}
}

// IsFinal reports whether no further status change is expected.
func IsFinal(s Status) bool {
	return Classify(s) != ClassPending
}

var statusMessages = map[Status]string{
	StatusQueued:      "Message has been queued for delivery.",
	StatusSending:     "Message is being sent.",
	StatusSent:        "Message has been sent successfully.",
	StatusDelivered:   "Message has been delivered successfully.",
	StatusUndelivered: "Message could not be delivered.",
	StatusFailed:      "Message failed to send.",
}

// StatusMessage returns the human-readable description of a status.
func StatusMessage(s Status) string {
	if msg, ok := statusMessages[s]; ok {
		return msg
	}
	return "Message status: " + string(s)
}
