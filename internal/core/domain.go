package core

import (
	"errors"
	"strings"
)

const (
	Own    IncomeType = "Own"
	Studio IncomeType = "Studio"

	Film     Category = "Film"
	Kit      Category = "Kit"
	SelfCare Category = "Self-care"
)

// Ledger column layout: column 1 holds the reporter identity, the rest are
// numeric accumulators.
const (
	ColumnIdentity Column = 1
	ColumnOwn      Column = 2
	ColumnStudio   Column = 3
	ColumnFilm     Column = 4
	ColumnKit      Column = 5
)

type (
	IncomeType string

	Category string

	// Column is a 1-based ledger column index.
	Column int

	// Report holds the facts collected by one completed conversation.
	Report struct {
		Reporter       string
		Type           IncomeType
		Amount         string // decimal digits, as entered
		Category       Category
		CategoryAmount string // empty for Self-care
	}
)

var (
	ErrEmptyReporter   = errors.New("empty reporter identity")
	ErrInvalidType     = errors.New("invalid income type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
)

// ParseIncomeType matches a reporter reply against the income types.
func ParseIncomeType(s string) (IncomeType, bool) {
	switch IncomeType(strings.TrimSpace(s)) {
	case Own:
		return Own, true
	case Studio:
		return Studio, true
	}
	return "", false
}

// ParseCategory matches a reporter reply against the categories.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.TrimSpace(s)) {
	case Film:
		return Film, true
	case Kit:
		return Kit, true
	case SelfCare:
		return SelfCare, true
	}
	return "", false
}

// ValidAmount reports whether s is one or more decimal digits; no sign,
// decimal point or separators are accepted.
func ValidAmount(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (t IncomeType) Column() Column {
	if t == Studio {
		return ColumnStudio
	}
	return ColumnOwn
}

func (c Category) Column() Column {
	if c == Kit {
		return ColumnKit
	}
	// Self-care reports a zero film cost, so it shares the Film column.
	return ColumnFilm
}

// AllowedAmounts returns the accepted category amounts, nil when the
// category takes none.
func (c Category) AllowedAmounts() []string {
	switch c {
	case Film:
		return []string{"500", "1000", "1500"}
	case Kit:
		return []string{"500", "1000"}
	}
	return nil
}

// AcceptsAmount reports whether s is one of the category's allowed amounts.
func (c Category) AcceptsAmount(s string) bool {
	s = strings.TrimSpace(s)
	for _, v := range c.AllowedAmounts() {
		if s == v {
			return true
		}
	}
	return false
}

func (t IncomeType) Validate() error {
	if t != Own && t != Studio {
		return ErrInvalidType
	}
	return nil
}

func (c Category) Validate() error {
	if c != Film && c != Kit && c != SelfCare {
		return ErrInvalidCategory
	}
	return nil
}

func (r Report) Validate() error {
	if strings.TrimSpace(r.Reporter) == "" {
		return ErrEmptyReporter
	}
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if !ValidAmount(r.Amount) {
		return ErrInvalidAmount
	}
	if err := r.Category.Validate(); err != nil {
		return err
	}
	if r.Category == SelfCare {
		if r.CategoryAmount != "" {
			return ErrInvalidAmount
		}
		return nil
	}
	if !r.Category.AcceptsAmount(r.CategoryAmount) {
		return ErrInvalidAmount
	}
	return nil
}
