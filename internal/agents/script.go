package agents

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Agent identifies one of the cooperating optimizer agents.
type Agent string

// The fixed agent set.
const (
	AgentIngest   Agent = "ingest"
	AgentDecision Agent = "decision"
	AgentAction   Agent = "action"
)

// Agents lists the agent set in highlight order.
var Agents = []Agent{AgentIngest, AgentDecision, AgentAction}

// Valid reports whether a belongs to the agent set.
func (a Agent) Valid() bool {
	for _, known := range Agents {
		if a == known {
			return true
		}
	}
	return false
}

// Template is one entry of the message script.
type Template struct {
	From    Agent  `yaml:"from" json:"from"`
	To      Agent  `yaml:"to" json:"to"`
	Content string `yaml:"content" json:"content"`
}

// Message is one materialized script step.
type Message struct {
	ID        string    `json:"id"`
	From      Agent     `json:"from"`
	To        Agent     `json:"to"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	// ErrEmptyScript is returned when a scheduler is built without templates.
	ErrEmptyScript = errors.New("agents: message script is empty")
	// ErrUnknownAgent is returned when a template names an agent outside the set.
	ErrUnknownAgent = errors.New("agents: unknown agent")
)

// DefaultScript is the reference conversation between the three agents.
var DefaultScript = []Template{
	{From: AgentIngest, To: AgentDecision, Content: "New metrics: NODE-005 traffic spike detected"},
	{From: AgentDecision, To: AgentAction, Content: "Optimize NODE-005: reduce power by 30%"},
	{From: AgentAction, To: AgentIngest, Content: "Executed: NODE-005 throttled, 42W saved"},
	{From: AgentIngest, To: AgentDecision, Content: "Alert: NODE-012 entering low-traffic period"},
	{From: AgentDecision, To: AgentAction, Content: "Command: Put NODE-012 to sleep mode"},
	{From: AgentAction, To: AgentDecision, Content: "Confirmed: NODE-012 sleeping, 85W saved"},
}

// ValidateScript checks that script is non-empty and only names known agents.
func ValidateScript(script []Template) error {
	if len(script) == 0 {
		return ErrEmptyScript
	}
	for i, t := range script {
		if !t.From.Valid() {
			return fmt.Errorf("template %d from %q: %w", i, t.From, ErrUnknownAgent)
		}
		if !t.To.Valid() {
			return fmt.Errorf("template %d to %q: %w", i, t.To, ErrUnknownAgent)
		}
	}
	return nil
}

type scriptFile struct {
	Name     string     `yaml:"name,omitempty"`
	Messages []Template `yaml:"messages"`
}

// LoadScript reads a YAML message script from disk.
func LoadScript(path string) ([]Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(b)
}

// ParseScript decodes and validates a YAML message script.
func ParseScript(b []byte) ([]Template, error) {
	var f scriptFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := ValidateScript(f.Messages); err != nil {
		return nil, err
	}
	return f.Messages, nil
}
