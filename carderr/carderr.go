// Package carderr defines the single 16-bit error code space shared by
// the card session manager, the fiscal-seal API, and the PKCS#7/S-MIME
// builders. Library-defined codes and ISO 7816 status words share one
// numeric space: 0x0000 is success, everything else is failure, and a
// card status word is passed through verbatim rather than remapped.
package carderr

import "fmt"

// Code is a 16-bit result code. Values below 0x0100, plus GenericError
// (0xFFFF), are library-defined; the other values at or above 0x6000
// are raw ISO 7816-4 status words (SW1<<8|SW2).
type Code uint16

const (
	OK                 Code = 0x0000
	ContextError       Code = 0x0001
	NotInitialized     Code = 0x0002
	AlreadyInitialized Code = 0x0003
	NoCard             Code = 0x0004
	UnknownCard        Code = 0x0005
	GenericError       Code = 0xFFFF

	WrongLength   Code = 0x6282
	WrongType     Code = 0x6981
	NotAuthorized Code = 0x6982
	PinBlocked    Code = 0x6983
	WrongData     Code = 0x6A80
	FileNotFound  Code = 0x6A82
	RecordNotFound Code = 0x6A83
	WrongLen      Code = 0x6A85
	UnknownObject Code = 0x6A88
	AlreadyExists Code = 0x6A89

	SWSuccess Code = 0x9000
)

var names = map[Code]string{
	OK:                 "ok",
	ContextError:       "context error",
	NotInitialized:     "not initialized",
	AlreadyInitialized: "already initialized",
	NoCard:             "no card",
	UnknownCard:        "unknown card",
	GenericError:       "generic error",
	WrongLength:        "wrong length (6282)",
	WrongType:          "wrong type (6981)",
	NotAuthorized:      "not authorized (6982)",
	PinBlocked:         "pin blocked (6983)",
	WrongData:          "wrong data (6A80)",
	FileNotFound:       "file not found (6A82)",
	RecordNotFound:     "record not found (6A83)",
	WrongLen:           "wrong length (6A85)",
	UnknownObject:      "unknown object (6A88)",
	AlreadyExists:      "already exists (6A89)",
}

func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("sw %04X", uint16(c))
}

// Error wraps a Code with the operation that produced it and, for PIN
// verification failures, the remaining-tries count carried in SW's low
// nibble.
type Error struct {
	Code      Code
	Op        string
	Retries   int // -1 if not applicable
	Underlying error
}

func New(op string, code Code) *Error {
	return &Error{Op: op, Code: code, Retries: -1}
}

func Wrap(op string, code Code, err error) *Error {
	return &Error{Op: op, Code: code, Retries: -1, Underlying: err}
}

func (e *Error) Error() string {
	if e.Retries >= 0 {
		return fmt.Sprintf("%s: %s (retries left: %d)", e.Op, e.Code, e.Retries)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Underlying }

// CodeOf extracts the Code carried by err, if any, for switch-style
// dispatch by callers that don't want to hold onto *Error.
func CodeOf(err error) (Code, bool) {
	if e, ok := err.(*Error); ok {
		return e.Code, true
	}
	return 0, false
}

// FromSW maps a raw APDU status word onto a Code. Every status word is
// passed through verbatim, so SW 9000 becomes SWSuccess, not OK.
func FromSW(sw1, sw2 byte) Code {
	return Code(uint16(sw1)<<8 | uint16(sw2))
}

// RemainingTries extracts the low nibble of a VERIFY-failure SW (63Cx)
// as the number of PIN attempts left.
func RemainingTries(sw Code) (int, bool) {
	if sw&0xFFF0 == 0x63C0 {
		return int(sw & 0x000F), true
	}
	return 0, false
}
