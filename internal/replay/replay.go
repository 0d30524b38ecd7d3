// Package replay implements save/load of a session's history as an
// append-only JSON-lines log of plugin invocations, so a fresh session
// replaying the log reproduces the same tree (spec.md §4.G save/load,
// §8 property 7).
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Entry records one successful Run/Schedule invocation.
type Entry struct {
	PluginName string          `json:"plugin_name"`
	Argument   json.RawMessage `json:"argument"`
}

// Log accumulates entries in memory as the session runs plugins, and can
// be flushed to or rebuilt from a file.
type Log struct {
	entries []Entry
}

func NewLog() *Log { return &Log{} }

// Append records a successful invocation.
func (l *Log) Append(pluginName string, argument json.RawMessage) {
	l.entries = append(l.entries, Entry{PluginName: pluginName, Argument: argument})
}

// ToFile writes every recorded entry to path, one JSON object per line.
func (l *Log) ToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("replay: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, e := range l.entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("replay: encode entry: %w", err)
		}
	}
	return w.Flush()
}

// FromFile reads every recorded entry from path, in order.
func FromFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	dec := json.NewDecoder(f)
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("replay: decode entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
