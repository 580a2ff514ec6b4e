package edgar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleIndexFile = `Daily Index of EDGAR Dissemination Feed
Form Type   Company Name                        CIK         Date Filed  File Name
---------------------------------------------------------------------------------
10-K        APPLE INC                           320193      20240101    edgar/data/320193/0000320193-24-000001.txt
10-Q        MICROSOFT CORP                      789019      20240101    edgar/data/789019/0000789019-24-000002.txt
8-K         SOME OTHER CO                       111111      20240101    edgar/data/111111/0000111111-24-000003.txt
10-K/A      TESLA INC                           1318605     20240101    edgar/data/1318605/0001318605-24-000004.txt
not a parseable line
`

func newIndexTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *IndexParser) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := newTestClient(t, 0)
	parser := NewIndexParser(client, srv.URL+"/daily-index", srv.URL)
	return srv, parser
}

func TestIndexParser_ParseIndexFile(t *testing.T) {
	srv, parser := newIndexTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleIndexFile))
	})

	filings, err := parser.ParseIndexFile(context.Background(), srv.URL+"/daily-index/2024/QTR1/form.0101.idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The 8-K and the malformed line must be dropped.
	if len(filings) != 3 {
		t.Fatalf("expected 3 target filings, got %d", len(filings))
	}

	first := filings[0]
	if first.FormType != "10-K" {
		t.Errorf("expected form 10-K, got %s", first.FormType)
	}
	if first.CompanyName != "APPLE INC" {
		t.Errorf("unexpected company name: %q", first.CompanyName)
	}
	if first.CIK != "0000320193" {
		t.Errorf("CIK must be zero-padded to 10 digits, got %q", first.CIK)
	}
	if first.AccessionNumber != "0000320193-24-000001" {
		t.Errorf("unexpected accession: %q", first.AccessionNumber)
	}
	if first.DateFiled != "20240101" {
		t.Errorf("unexpected date filed: %q", first.DateFiled)
	}
	wantURL := srv.URL + "/edgar/data/320193/0000320193-24-000001.txt"
	if first.SourceURL != wantURL {
		t.Errorf("unexpected source URL:\n got %s\nwant %s", first.SourceURL, wantURL)
	}

	if filings[2].FormType != "10-K/A" {
		t.Errorf("amended forms must be kept, got %s", filings[2].FormType)
	}
}

func TestIndexParser_ParseIndexFile_NoSeparator(t *testing.T) {
	srv, parser := newIndexTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("just some text\nwith no header separator\n"))
	})

	filings, err := parser.ParseIndexFile(context.Background(), srv.URL+"/form.0101.idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filings) != 0 {
		t.Errorf("expected no filings from a malformed file, got %d", len(filings))
	}
}

func TestIndexParser_ParseIndexFile_FetchFailureSoftFails(t *testing.T) {
	srv, parser := newIndexTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	filings, err := parser.ParseIndexFile(context.Background(), srv.URL+"/form.0101.idx")
	if err != nil {
		t.Fatalf("a 404 must not abort the run: %v", err)
	}
	if filings != nil {
		t.Errorf("expected nil filings, got %v", filings)
	}
}

func TestIndexParser_ListIndexFiles(t *testing.T) {
	listing := `<html><body>
<a href="form.0102.idx">form.0102.idx</a>
<a href="form.0103.idx">form.0103.idx</a>
<a href="company.0102.idx">company.0102.idx</a>
<a href="master.0102.idx">master.0102.idx</a>
<a href="sitemap.quarterlyindexes.xml">sitemap</a>
</body></html>`

	srv, parser := newIndexTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/daily-index/2024/QTR1/" {
			w.Write([]byte(listing))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	links, err := parser.ListIndexFiles(context.Background(), 2024, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 form index files, got %d: %v", len(links), links)
	}
	want := fmt.Sprintf("%s/daily-index/2024/QTR1/form.0102.idx", srv.URL)
	if links[0] != want {
		t.Errorf("unexpected link:\n got %s\nwant %s", links[0], want)
	}
}

func TestPadCIK(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "320193", want: "0000320193"},
		{in: "0000320193", want: "0000320193"},
		{in: "1", want: "0000000001"},
		{in: " 789019 ", want: "0000789019"},
	}

	for _, tt := range tests {
		if got := PadCIK(tt.in); got != tt.want {
			t.Errorf("PadCIK(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
