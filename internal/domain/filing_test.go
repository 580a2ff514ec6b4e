package domain

import "testing"

func TestFilingID(t *testing.T) {
	got := FilingID("0000320193", "0000320193-23-000106")
	want := "0000320193_0000320193-23-000106"
	if got != want {
		t.Errorf("FilingID() = %q, want %q", got, want)
	}

	desc := FilingDescriptor{CIK: "0000320193", AccessionNumber: "0000320193-23-000106"}
	if desc.FilingID() != want {
		t.Errorf("descriptor identity must match the identity function")
	}
}

func TestIsTargetForm(t *testing.T) {
	tests := []struct {
		form string
		want bool
	}{
		{form: "10-K", want: true},
		{form: "10-Q", want: true},
		{form: "10-K/A", want: true},
		{form: "10-Q/A", want: true},
		{form: "8-K", want: false},
		{form: "S-1", want: false},
		{form: "10-K405", want: false},
		{form: "", want: false},
	}

	for _, tt := range tests {
		if got := IsTargetForm(tt.form); got != tt.want {
			t.Errorf("IsTargetForm(%q) = %v, want %v", tt.form, got, tt.want)
		}
	}
}

func TestFormTypeClassification(t *testing.T) {
	if !FormType10K.IsAnnual() || !FormType10KA.IsAnnual() {
		t.Error("10-K forms must classify as annual")
	}
	if FormType10K.IsQuarterly() {
		t.Error("10-K must not classify as quarterly")
	}
	if !FormType10Q.IsQuarterly() || !FormType10QA.IsQuarterly() {
		t.Error("10-Q forms must classify as quarterly")
	}
}

func TestDocumentURLMap_HasPrimaryDocument(t *testing.T) {
	m := DocumentURLMap{
		"10-K":            "https://example.com/doc.htm",
		DocKeyCompleteText: "https://example.com/full.txt",
	}

	if !m.HasPrimaryDocument(FormType10K) {
		t.Error("expected primary document for 10-K")
	}
	if m.HasPrimaryDocument(FormType10Q) {
		t.Error("unexpected primary document for 10-Q")
	}
}
