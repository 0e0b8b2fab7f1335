package entity

// AgentResult is what a browsing agent run hands back.
// FinalResult is empty when the agent produced nothing.
type AgentResult struct {
	FinalResult string
	Steps       int
	Exhausted   bool
}
