package adapter

// Result mirrors shell.Result on the client side.
type Result struct {
	Lines   []string `json:"lines"`
	Prompt  string   `json:"prompt"`
	Cleared bool     `json:"cleared"`
}

// Message and Reply are the /ws wire types.
type Message struct {
	Type  string `json:"type"`
	Input string `json:"input"`
}

type Reply struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionId,omitempty"`
	Lines     []string `json:"lines,omitempty"`
	Input     string   `json:"input,omitempty"`
	Prompt    string   `json:"prompt"`
	Cleared   bool     `json:"cleared,omitempty"`
	Error     string   `json:"error,omitempty"`
}
