// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package item

import (
	"fmt"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

const (
	// DateLayout is the calendar date format used on the wire.
	DateLayout = "2006-01-02"

	// DefaultLocation is used when an item is created without a storage location.
	DefaultLocation = "unspecified"
)

// 📦 Item is a tracked perishable with parsed calendar dates.
//
// An item carries no status field: status depends on "today" and is always
// recomputed with StatusOn.
type Item struct {
	ID              string
	Name            string
	ExpiryDate      time.Time
	ProductionDate  *time.Time
	Quantity        int
	StorageLocation string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatusOn classifies the item against the given day.
func (i Item) StatusOn(today time.Time) Status {
	return Classify(i.ExpiryDate, today)
}

// 🧾 Record is an item as a row store hands it back: dates are still strings.
type Record struct {
	ID              string    `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	ExpiryDate      string    `json:"expiry_date" yaml:"expiry_date"`
	ProductionDate  string    `json:"production_date,omitempty" yaml:"production_date,omitempty"`
	Quantity        int       `json:"quantity" yaml:"quantity"`
	StorageLocation string    `json:"storage_location" yaml:"storage_location"`
	CreatedAt       time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// ClassificationError reports a record that cannot be classified. The record
// is left out of the snapshot; the rest of the cycle continues.
type ClassificationError struct {
	ItemID string
	Field  string
	Value  string
	Err    error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("item %q: invalid %s %q: %v", e.ItemID, e.Field, e.Value, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// Parse converts a record into an Item. Any malformed field yields a
// *ClassificationError.
func Parse(rec Record) (Item, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return Item{}, &ClassificationError{ItemID: rec.ID, Field: "id", Value: rec.ID, Err: errors.New("id is required")}
	}

	expiry, err := ParseDate(rec.ExpiryDate)
	if err != nil {
		return Item{}, &ClassificationError{ItemID: id, Field: "expiry_date", Value: rec.ExpiryDate, Err: err}
	}

	it := Item{
		ID:              id,
		Name:            rec.Name,
		ExpiryDate:      expiry,
		Quantity:        rec.Quantity,
		StorageLocation: rec.StorageLocation,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}

	if strings.TrimSpace(rec.ProductionDate) != "" {
		produced, err := ParseDate(rec.ProductionDate)
		if err != nil {
			return Item{}, &ClassificationError{ItemID: id, Field: "production_date", Value: rec.ProductionDate, Err: err}
		}
		it.ProductionDate = &produced
	}

	return it, nil
}

// Record converts the item back to its storage form.
func (i Item) Record() Record {
	rec := Record{
		ID:              i.ID,
		Name:            i.Name,
		ExpiryDate:      FormatDate(i.ExpiryDate),
		Quantity:        i.Quantity,
		StorageLocation: i.StorageLocation,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
	if i.ProductionDate != nil {
		rec.ProductionDate = FormatDate(*i.ProductionDate)
	}
	return rec
}

// ApplyDefaults fills the fields a new item may omit.
func (r *Record) ApplyDefaults() {
	if r.Quantity <= 0 {
		r.Quantity = 1
	}
	if strings.TrimSpace(r.StorageLocation) == "" {
		r.StorageLocation = DefaultLocation
	}
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp and
// returns the calendar day it names.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date is empty")
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Day(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Errorf("parsing date: %w", err)
	}
	return Day(t), nil
}

// FormatDate renders the calendar day of t.
func FormatDate(t time.Time) string {
	return Day(t).Format(DateLayout)
}
