package cfront

import "testing"

func loc() Location { return Location{File: "t.c", Line: 1, Col: 1} }

func TestEscapeStateSingleCharEscapes(t *testing.T) {
	var e EscapeState
	res := e.Start('n', Single(loc()))
	if !res.Done || res.Rune != '\n' {
		t.Fatalf("got %+v", res)
	}
	if e.InProgress() {
		t.Fatal("single-char escape should not leave the state in progress")
	}
}

func TestEscapeStateUnknownEscapeWarns(t *testing.T) {
	var e EscapeState
	res := e.Start('q', Single(loc()))
	if !res.Done || res.Rune != 'q' {
		t.Fatalf("got %+v", res)
	}
	if len(res.Diags) != 1 || res.Diags[0].Severity != SevWarning {
		t.Fatalf("expected one warning, got %v", res.Diags)
	}
}

func TestEscapeStateHexSequence(t *testing.T) {
	var e EscapeState
	e.Start('x', Single(loc()))
	if !e.InProgress() {
		t.Fatal("expected in-progress after starting \\x")
	}
	res := e.Feed('4', Single(loc()))
	if res.Done {
		t.Fatal("one hex digit should not finalize (max 2)")
	}
	res = e.Feed('1', Single(loc()))
	if !res.Done || res.Rune != 0x41 {
		t.Fatalf("got %+v", res)
	}
}

func TestEscapeStateHexSequenceStopsAtNonHex(t *testing.T) {
	var e EscapeState
	e.Start('x', Single(loc()))
	e.Feed('4', Single(loc()))
	res := e.Feed('z', Single(loc()))
	if !res.Done || res.Rune != 0x4 || !res.HasOverflow || res.Overflow != 'z' {
		t.Fatalf("got %+v", res)
	}
}

func TestEscapeStateOctalSequence(t *testing.T) {
	var e EscapeState
	e.Start('1', Single(loc()))
	res := e.Feed('2', Single(loc()))
	if res.Done {
		t.Fatal("two octal digits should not finalize (max 3)")
	}
	res = e.Feed('3', Single(loc()))
	if !res.Done || res.Rune != 0o123 {
		t.Fatalf("got %+v", res)
	}
}

func TestEscapeStateOctalOverflowFinalizesEarly(t *testing.T) {
	var e EscapeState
	e.Start('7', Single(loc())) // starts at 7
	res := e.Feed('7', Single(loc()))
	if res.Done {
		t.Fatal("77 is within range, should not finalize yet")
	}
	// 777 octal = 511, over 0o377 (255): should finalize at two digits,
	// overflowing the third back to the caller.
	res = e.Feed('7', Single(loc()))
	if !res.Done || !res.HasOverflow || res.Overflow != '7' {
		t.Fatalf("got %+v", res)
	}
	if res.Rune != 0o77 {
		t.Fatalf("want 0o77, got %v", res.Rune)
	}
}

func TestEscapeStateShortUnicodeRequiresFourDigits(t *testing.T) {
	var e EscapeState
	e.Start('u', Single(loc()))
	res := e.Feed('0', Single(loc()))
	if res.Done {
		t.Fatal("should still be accumulating")
	}
	e.Feed('0', Single(loc()))
	e.Feed('4', Single(loc()))
	res = e.Feed('1', Single(loc()))
	if !res.Done || res.Rune != 'A' {
		t.Fatalf("got %+v", res)
	}
}

func TestEscapeStateShortUnicodeTooFewDigitsIsError(t *testing.T) {
	var e EscapeState
	e.Start('u', Single(loc()))
	e.Feed('0', Single(loc()))
	res := e.Feed('x', Single(loc()))
	if !res.Done || len(res.Diags) == 0 || res.Diags[0].Severity != SevError {
		t.Fatalf("expected error, got %+v", res)
	}
}

func TestEscapeStateUnicodeSurrogateIsError(t *testing.T) {
	var e EscapeState
	e.Start('u', Single(loc()))
	e.Feed('d', Single(loc()))
	e.Feed('8', Single(loc()))
	e.Feed('0', Single(loc()))
	res := e.Feed('0', Single(loc()))
	if !res.Done || len(res.Diags) == 0 || res.Diags[0].Severity != SevError {
		t.Fatalf("expected surrogate error, got %+v", res)
	}
}

func TestEscapeStateOctalNoDigitsIsError(t *testing.T) {
	var e EscapeState
	// Start with a non-digit, non-letter escape won't route to octal;
	// exercise finalizeOctal's empty-digits path directly via a
	// zero-valued state forced into the octal kind.
	e.stage = escSequence
	e.kind = EscOctal
	e.digits = ""
	res := e.finalizeOctal(Single(loc()), false, 0)
	if !res.Done || len(res.Diags) == 0 || res.Diags[0].Severity != SevError {
		t.Fatalf("expected error, got %+v", res)
	}
}
