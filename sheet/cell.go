// Package sheet holds the cell pointer and the sinks transcripts are saved to.
package sheet

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidAddress = errors.New("invalid cell address")

var addressRe = regexp.MustCompile(`^([A-Z]+)([0-9]+)$`)

// Address is a cell reference such as "C10". Rows are 1-based.
type Address struct {
	Column string
	Row    int
}

// ParseAddress accepts user input like " c10 ". Row 0 and a row too large
// for an int are rejected with ErrInvalidAddress.
func ParseAddress(s string) (Address, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	m := addressRe.FindStringSubmatch(s)
	if m == nil {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	row, err := strconv.Atoi(m[2])
	if err != nil || row < 1 {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address{Column: m[1], Row: row}, nil
}

func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return a.Column + strconv.Itoa(a.Row)
}

// Next is the cell directly below.
func (a Address) Next() Address {
	return Address{Column: a.Column, Row: a.Row + 1}
}

// ColumnIndex maps A=1, Z=26, AA=27.
func (a Address) ColumnIndex() int {
	n := 0
	for _, c := range a.Column {
		n = n*26 + int(c-'A'+1)
	}
	return n
}

func (a Address) IsZero() bool { return a.Column == "" }
