package knowledge

import "strings"

type Policy string

const (
	// the first answer is returned as is
	PolicyFixed Policy = "fixed"
	// one of the answers is picked uniformly
	PolicyRandom Policy = "random"
)

type (
	// Entry is a keyword-triggered canned answer. It does not change after load.
	Entry struct {
		// lowercased
		Keywords []string
		Policy   Policy
		Answers  []string
		Options  []Option

		// answer was given as {randomize, options} rather than a string
		OptionAnswer bool
	}

	Option struct {
		Text  string `json:"text" yaml:"text"`
		Value string `json:"value" yaml:"value"`
	}

	// Chooser is the random source for PolicyRandom; math/rand/v2 satisfies it.
	Chooser interface {
		IntN(n int) int
	}
)

// Answer returns the text of the entry; false means the answer in the
// knowledge base has no usable shape.
func (e Entry) Answer(r Chooser) (string, bool) {
	if len(e.Answers) == 0 {
		return "", false
	}
	if e.Policy == PolicyRandom && len(e.Answers) > 1 {
		return e.Answers[r.IntN(len(e.Answers))], true
	}
	return e.Answers[0], true
}

func (e Entry) HasKeyword(keyword string) bool {
	keyword = strings.ToLower(keyword)
	for _, k := range e.Keywords {
		if k == keyword {
			return true
		}
	}
	return false
}

// Matches reports whether any keyword occurs in the lowercased message.
func (e Entry) Matches(message string) bool {
	message = strings.ToLower(message)
	for _, k := range e.Keywords {
		if strings.Contains(message, k) {
			return true
		}
	}
	return false
}

// OptionFromLabel builds the option of a bare label: value is the label
// lowercased with spaces replaced by underscores.
func OptionFromLabel(label string) Option {
	return Option{
		Text:  label,
		Value: strings.ReplaceAll(strings.ToLower(label), " ", "_"),
	}
}
