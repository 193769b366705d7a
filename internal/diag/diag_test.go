package diag

import "testing"

func TestCollectorAccumulatesInOrder(t *testing.T) {
	col := New()
	if col.HasErrors() {
		t.Fatal("new collector reports errors")
	}

	loc := Location{File: "speed_limiter.srl", Line: 4, Column: 2}
	col.MissingField(loc, "Reading", "unit")
	col.UnknownField(loc, "Reading", "bogus")
	col.IncompatiblePattern(loc, "option pattern against non-option scrutinee")

	if !col.HasErrors() {
		t.Fatal("expected HasErrors after Add")
	}

	diags := col.Diagnostics()
	if len(diags) != 3 {
		t.Fatalf("got %d diagnostics, want 3", len(diags))
	}
	if diags[0].Kind != MissingField || diags[0].Field != "unit" {
		t.Errorf("diagnostic 0 = %+v, want MissingField/unit", diags[0])
	}
	if diags[1].Kind != UnknownField || diags[1].Field != "bogus" {
		t.Errorf("diagnostic 1 = %+v, want UnknownField/bogus", diags[1])
	}
	if diags[2].Kind != IncompatiblePattern {
		t.Errorf("diagnostic 2 kind = %v, want IncompatiblePattern", diags[2].Kind)
	}
}

func TestCollectorErrNilWhenEmpty(t *testing.T) {
	col := New()
	if err := col.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
}

func TestCollectorErrCombinesDiagnostics(t *testing.T) {
	col := New()
	col.Add(Diagnostic{Kind: UnsatisfiableDependency, Message: "cycle", Location: Location{File: "a.srl"}})
	col.Add(Diagnostic{Kind: DuplicateIdentifier, Message: "dup x", Location: Location{File: "a.srl"}})

	err := col.Err()
	if err == nil {
		t.Fatal("Err() = nil, want combined error")
	}
}

func TestDiagnosticsReturnsCopy(t *testing.T) {
	col := New()
	col.Add(Diagnostic{Kind: MissingField, Location: Location{}})

	got := col.Diagnostics()
	got[0].Kind = UnknownField

	if col.Diagnostics()[0].Kind != MissingField {
		t.Fatal("mutating the returned slice mutated the collector's internal state")
	}
}

func TestLocationStringFormatsUnknown(t *testing.T) {
	if got := (Location{}).String(); got != "<unknown>" {
		t.Errorf("empty Location.String() = %q, want <unknown>", got)
	}
	loc := Location{File: "a.srl", Line: 3, Column: 7}
	if got := loc.String(); got != "a.srl:3:7" {
		t.Errorf("Location.String() = %q, want a.srl:3:7", got)
	}
}
