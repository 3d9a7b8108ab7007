package cfront

import "testing"

func TestSymbolStatePlusPlus(t *testing.T) {
	var s SymbolState
	r := s.Push('+', Single(loc()))
	if r.Ok {
		t.Fatalf("single '+' should not resolve yet, got %+v", r)
	}
	r = s.Push('+', Single(loc()))
	if !r.Ok || r.Emitted != SymIncrement {
		t.Fatalf("got %+v", r)
	}
}

func TestSymbolStateSingleCharOperator(t *testing.T) {
	var s SymbolState
	r := s.Push(';', Single(loc()))
	if !r.Ok || r.Emitted != SymSemi {
		t.Fatalf("got %+v", r)
	}
}

func TestSymbolStateThreeCharOperator(t *testing.T) {
	var s SymbolState
	s.Push('<', Single(loc()))
	s.Push('<', Single(loc()))
	r := s.Push('=', Single(loc()))
	if !r.Ok || r.Emitted != SymShlEq {
		t.Fatalf("got %+v", r)
	}
}

func TestSymbolStateEllipsis(t *testing.T) {
	var s SymbolState
	s.Push('.', Single(loc()))
	s.Push('.', Single(loc()))
	r := s.Push('.', Single(loc()))
	if !r.Ok || r.Emitted != SymEllipsis {
		t.Fatalf("got %+v", r)
	}
}

func TestSymbolStateDigraphNoWarning(t *testing.T) {
	var s SymbolState
	s.Push('<', Single(loc()))
	r := s.Push(':', Single(loc()))
	if !r.Ok || r.Emitted != SymLBracket {
		t.Fatalf("got %+v", r)
	}
	if len(r.Diags) != 0 {
		t.Fatalf("digraphs should not warn, got %v", r.Diags)
	}
}

func TestSymbolStateTrigraphWarns(t *testing.T) {
	var s SymbolState
	s.Push('?', Single(loc()))
	s.Push('?', Single(loc()))
	r := s.Push('(', Single(loc())) // "??(" normalizes to '[' (SymLBracket)
	if !r.Ok || r.Emitted != SymLBracket {
		t.Fatalf("got %+v", r)
	}
	if len(r.Diags) != 1 || r.Diags[0].Severity != SevWarning {
		t.Fatalf("expected a trigraph warning, got %v", r.Diags)
	}
}

func TestSymbolStateStrayHashIsError(t *testing.T) {
	var s SymbolState
	r := s.Push('#', Single(loc()))
	if r.Ok {
		t.Fatal("stray '#' should not resolve to a symbol")
	}
	if len(r.Diags) != 1 || r.Diags[0].Severity != SevError {
		t.Fatalf("expected an error diag, got %v", r.Diags)
	}
}

func TestSymbolStateFullBufferSignalsRetry(t *testing.T) {
	var s SymbolState
	s.c1, s.c2, s.c3 = '<', '<', '=' // pre-filled, as if "<<=" had just been staged
	r := s.Push('x', Single(loc()))
	if !r.NeedsRetry {
		t.Fatalf("expected retry signal once buffer is already full, got %+v", r)
	}
	if !r.Ok || r.Emitted != SymShlEq {
		t.Fatalf("got %+v", r)
	}
}

func TestSymbolStatePlusDoesNotResolveBeforeSeeingNextChar(t *testing.T) {
	var s SymbolState
	r := s.Push('+', Single(loc()))
	if r.Ok {
		t.Fatalf("'+' alone must stay pending since '+=' exists, got %+v", r)
	}
	r = s.Push(' ', Single(loc())) // a non-extending char: + resolves standalone
	if !r.Ok || r.Emitted != SymPlus {
		t.Fatalf("got %+v", r)
	}
}

func TestSymbolStateDrainEmpty(t *testing.T) {
	var s SymbolState
	sym, ok, diags := s.Drain(Single(loc()))
	if ok || sym != 0 || diags != nil {
		t.Fatalf("draining an empty buffer should be a no-op, got %v %v %v", sym, ok, diags)
	}
}
