package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cannedYAML = `
answers:
  - triggers: ["عميل نشط", "active clients"]
    answer: "لديك 15 عميل نشط"
  - triggers: ["Revenue"]
    answer: "Revenue this quarter is 120k"
`

func TestCannedAnswersLookup(t *testing.T) {
	canned, err := ParseCannedAnswers([]byte(cannedYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, canned.Len())

	tests := []struct {
		question string
		want     string
		ok       bool
	}{
		{question: "كم عميل نشط؟", want: "لديك 15 عميل نشط", ok: true},
		{question: "How many ACTIVE clients do we have?", want: "لديك 15 عميل نشط", ok: true},
		{question: "what is our revenue, roughly?", want: "Revenue this quarter is 120k", ok: true},
		{question: "ما هي المصاريف؟", ok: false},
		{question: "  ؟  ", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got, ok := canned.Lookup(tt.question)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCannedAnswersValidation(t *testing.T) {
	_, err := ParseCannedAnswers([]byte("answers:\n  - triggers: [a]\n"))
	assert.ErrorContains(t, err, "no answer text")

	_, err = ParseCannedAnswers([]byte("answers:\n  - triggers: ['?']\n    answer: x\n"))
	assert.ErrorContains(t, err, "no triggers")

	_, err = ParseCannedAnswers([]byte("answers: [unterminated"))
	assert.Error(t, err)
}

func TestLoadCannedAnswers(t *testing.T) {
	empty, err := LoadCannedAnswers("")
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
	_, ok := empty.Lookup("anything")
	assert.False(t, ok)

	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cannedYAML), 0o644))
	canned, err := LoadCannedAnswers(path)
	require.NoError(t, err)
	assert.Equal(t, 2, canned.Len())

	_, err = LoadCannedAnswers(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	var nilAnswers *CannedAnswers
	assert.Zero(t, nilAnswers.Len())
}
