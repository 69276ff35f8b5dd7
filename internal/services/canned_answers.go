package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type CannedAnswer struct {
	Triggers []string `yaml:"triggers" json:"triggers"`
	Answer   string   `yaml:"answer" json:"answer"`
}

// CannedAnswers matches questions against trigger phrases loaded from YAML.
// Entries are checked in file order; the first hit wins.
type CannedAnswers struct {
	entries []CannedAnswer
}

func LoadCannedAnswers(path string) (*CannedAnswers, error) {
	if path == "" {
		return &CannedAnswers{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read canned answers: %w", err)
	}
	return ParseCannedAnswers(data)
}

func ParseCannedAnswers(data []byte) (*CannedAnswers, error) {
	var doc struct {
		Answers []CannedAnswer `yaml:"answers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse canned answers: %w", err)
	}
	ca := &CannedAnswers{}
	for i, entry := range doc.Answers {
		if entry.Answer == "" {
			return nil, fmt.Errorf("canned answer %d has no answer text", i)
		}
		var triggers []string
		for _, t := range entry.Triggers {
			if n := normalizeQuestion(t); n != "" {
				triggers = append(triggers, n)
			}
		}
		if len(triggers) == 0 {
			return nil, fmt.Errorf("canned answer %d has no triggers", i)
		}
		ca.entries = append(ca.entries, CannedAnswer{Triggers: triggers, Answer: entry.Answer})
	}
	return ca, nil
}

func (ca *CannedAnswers) Len() int {
	if ca == nil {
		return 0
	}
	return len(ca.entries)
}

// Lookup returns the answer whose trigger appears in the question.
func (ca *CannedAnswers) Lookup(question string) (string, bool) {
	if ca == nil {
		return "", false
	}
	q := normalizeQuestion(question)
	if q == "" {
		return "", false
	}
	for _, entry := range ca.entries {
		for _, trigger := range entry.Triggers {
			if strings.Contains(q, trigger) {
				return entry.Answer, true
			}
		}
	}
	return "", false
}

func normalizeQuestion(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("؟", " ", "?", " ", "!", " ", ".", " ", "،", " ", ",", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
