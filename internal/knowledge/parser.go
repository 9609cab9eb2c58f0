package knowledge

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"post-assist-bot/internal/logger"

	"github.com/goccy/go-yaml"
)

type (
	// shape of data.json; yaml is accepted as well
	rawEntry struct {
		Keywords []string      `yaml:"keywords"`
		Answer   interface{}   `yaml:"answer"`
		Options  []interface{} `yaml:"options"`
	}

	// Base serves the entries of the last successful load.
	Base struct {
		path string

		lock    sync.RWMutex
		entries []Entry
	}
)

// NewBase loads path once. A missing or malformed file gives an empty
// base and a warning, never an error.
func NewBase(path string) *Base {
	b := &Base{path: path, entries: []Entry{}}
	if err := b.Reload(); err != nil {
		logger.Warning("Error loading knowledge base", path, err)
	}
	return b
}

func (b *Base) Path() string {
	return b.path
}

// Entries returns the entries in file order, the order defines match priority.
func (b *Base) Entries() []Entry {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.entries
}

// Reload replaces the entries; on error the previous ones are kept.
func (b *Base) Reload() error {
	entries, err := Load(b.path)
	if err != nil {
		return err
	}

	b.lock.Lock()
	b.entries = entries
	b.lock.Unlock()

	logger.Info("Knowledge base loaded:", len(entries), "entries from", b.path)
	return nil
}

func Load(path string) ([]Entry, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(input)
}

func Parse(input []byte) ([]Entry, error) {
	var raw []rawEntry
	if err := yaml.NewDecoder(bytes.NewReader(input)).Decode(&raw); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(raw))
	for i, r := range raw {
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("entry %d has no keywords", i)
		}
		entries = append(entries, newEntry(r))
	}
	return entries, nil
}

func newEntry(r rawEntry) Entry {
	e := Entry{
		Keywords: make([]string, 0, len(r.Keywords)),
		Policy:   PolicyFixed,
		Options:  make([]Option, 0, len(r.Options)),
	}

	for _, k := range r.Keywords {
		// an empty keyword would match every message
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			e.Keywords = append(e.Keywords, k)
		}
	}

	switch answer := r.Answer.(type) {
	case string:
		e.Answers = []string{answer}
	default:
		if m, ok := asMap(answer); ok {
			// {randomize: bool, options: [...]}
			e.OptionAnswer = true
			if options, ok := m["options"].([]interface{}); ok {
				e.Answers = stringValues(options)
			}
			if randomize, _ := m["randomize"].(bool); randomize && len(e.Answers) > 0 {
				e.Policy = PolicyRandom
			}
		}
	}

	for _, opt := range r.Options {
		if label, ok := opt.(string); ok {
			e.Options = append(e.Options, OptionFromLabel(label))
			continue
		}
		m, ok := asMap(opt)
		if !ok {
			continue
		}
		text, _ := m["text"].(string)
		if text == "" {
			continue
		}
		value, _ := m["value"].(string)
		if value == "" {
			value = OptionFromLabel(text).Value
		}
		e.Options = append(e.Options, Option{Text: text, Value: value})
	}

	return e
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		res := make(map[string]interface{}, len(m))
		for k, v := range m {
			res[fmt.Sprint(k)] = v
		}
		return res, true
	}
	return nil, false
}

func stringValues(values []interface{}) []string {
	res := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			res = append(res, s)
		}
	}
	return res
}
