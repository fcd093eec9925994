package model

// Role identifies the author of a dialogue turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DialogueTurn is one entry of a transcript. Turns are never reordered or mutated.
type DialogueTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Grounding binds a follow-up question to the verdict it concerns
type Grounding struct {
	QueryID    string  `json:"query_id"`
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Answer is the normalized reply of the dialogue backend
type Answer struct {
	Text string `json:"answer"`
}
