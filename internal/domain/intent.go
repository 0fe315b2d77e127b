package domain

// IntentType classifies side effects emitted after a committed mutation.
type IntentType string

const (
	IntentNotify IntentType = "notify"
	IntentLog    IntentType = "log"
)

// TargetAdmins addresses every active admin instead of a single principal.
const TargetAdmins = "role:admin"

// Intent asks a collaborator to deliver a notification or record history.
// For notify intents Target is a principal id (or TargetAdmins); for log
// intents it is the request id.
type Intent struct {
	Type    IntentType `json:"type"`
	Target  string     `json:"target"`
	Message string     `json:"message"`
}
