package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PlotIDs is an ordered set of plot identifiers. It is stored as a jsonb
// array; the mapping to and from the column is explicit rather than an ORM
// cast so ordering survives round trips.
type PlotIDs []int64

func (p PlotIDs) Value() (driver.Value, error) {
	if p == nil {
		p = PlotIDs{}
	}
	return json.Marshal(p)
}

func (p *PlotIDs) Scan(value interface{}) error {
	if value == nil {
		*p = PlotIDs{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported plot id column type %T", value)
	}
	return json.Unmarshal(raw, p)
}

func (PlotIDs) GormDataType() string {
	return "jsonb"
}

// Contains reports whether id is part of the set.
func (p PlotIDs) Contains(id int64) bool {
	for _, v := range p {
		if v == id {
			return true
		}
	}
	return false
}

// Installment is one entry of a purchase payment schedule.
type Installment struct {
	Month   int       `json:"month"`
	DueDate time.Time `json:"due_date"`
	Amount  int64     `json:"amount"`
}

// InstallmentSchedule is stored as a jsonb array alongside the purchase it
// was computed for. It is a snapshot: never recomputed after creation.
type InstallmentSchedule []Installment

func (s InstallmentSchedule) Value() (driver.Value, error) {
	if s == nil {
		s = InstallmentSchedule{}
	}
	return json.Marshal(s)
}

func (s *InstallmentSchedule) Scan(value interface{}) error {
	if value == nil {
		*s = InstallmentSchedule{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported schedule column type %T", value)
	}
	return json.Unmarshal(raw, s)
}

func (InstallmentSchedule) GormDataType() string {
	return "jsonb"
}
