package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type ChecklistItem struct {
	Text      string `json:"text" bson:"text"`
	Completed bool   `json:"completed" bson:"completed"`
}

// Checklist is stored inline with its task as a JSON document.
type Checklist []ChecklistItem

func (c Checklist) CompletedCount() int {
	n := 0
	for _, item := range c {
		if item.Completed {
			n++
		}
	}
	return n
}

// Progress returns round(100 * completed / total), rounding halves up.
// An empty checklist has no progress.
func (c Checklist) Progress() int {
	total := len(c)
	if total == 0 {
		return 0
	}
	return (200*c.CompletedCount() + total) / (2 * total)
}

func (c Checklist) CompleteAll() Checklist {
	out := make(Checklist, len(c))
	for i, item := range c {
		item.Completed = true
		out[i] = item
	}
	return out
}

func (c Checklist) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *Checklist) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// StringList is a JSON-encoded list of strings, used for attachment URLs.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(value interface{}) error {
	return scanJSON(value, s)
}

func scanJSON(value interface{}, dest interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
