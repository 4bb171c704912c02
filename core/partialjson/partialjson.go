package partialjson

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoValue is returned by ParseAs when nothing could be recovered.
var ErrNoValue = errors.New("partialjson: no value recovered")

// Parser is the default best-effort parser. The zero value is ready to use.
type Parser struct{}

// Default is a shared Parser instance.
var Default = Parser{}

// Parse returns the value represented by the (possibly incomplete) JSON in
// text, or nil when the input is empty or cannot be interpreted.
func (Parser) Parse(text string) any {
	value, ok := parse(text)
	if !ok {
		return nil
	}
	return value
}

// Parse is a shortcut for Default.Parse.
func Parse(text string) any {
	return Default.Parse(text)
}

// Complete reports whether text is already a full JSON document.
func Complete(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed != "" && json.Valid([]byte(trimmed))
}

// ParseAs decodes the recoverable part of text into T.
func ParseAs[T any](text string) (T, error) {
	var out T

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return out, ErrNoValue
	}

	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return out, nil
	}

	repaired, err := repair(trimmed)
	if err != nil {
		return out, errors.Join(ErrNoValue, err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return out, errors.Join(ErrNoValue, err)
	}

	return out, nil
}

func parse(text string) (any, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		return value, true
	}

	repaired, err := repair(trimmed)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &value); err != nil {
		return nil, false
	}

	return value, true
}

// repair closes open strings, arrays and objects. jsonrepair is called behind
// a recover so that hostile input can never crash the stream processor.
func repair(text string) (repaired string, err error) {
	defer func() {
		if r := recover(); r != nil {
			repaired, err = "", errors.New("partialjson: repair failed")
		}
	}()

	return jsonrepair.JSONRepair(text)
}
