package edgar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/timmy/edgarvault/internal/domain"
)

const sampleFilingIndexPage = `<html><body>
<p>Document Format Files</p>
<table>
<tr><th>Seq</th><th>Description</th><th>Document</th><th>Type</th><th>Size</th></tr>
<tr><td>1</td><td>10-K</td><td><a href="/ix?doc=/Archives/edgar/data/320193/000032019324000001/aapl-20230930.htm">aapl-20230930.htm</a></td><td>10-K</td><td>8000000</td></tr>
<tr><td>2</td><td>EX-31.1</td><td><a href="/Archives/edgar/data/320193/000032019324000001/ex311.htm">ex311.htm</a></td><td>EX-31.1</td><td>20000</td></tr>
<tr><td>3</td><td>GRAPHIC</td><td><a href="/Archives/edgar/data/320193/000032019324000001/logo.jpg">logo.jpg</a></td><td>GRAPHIC</td><td>5000</td></tr>
<tr><td>4</td><td>Complete submission text file</td><td><a href="/Archives/edgar/data/320193/0000320193-24-000001.txt">0000320193-24-000001.txt</a></td><td>&nbsp;</td><td>9000000</td></tr>
</table>
<p>Data Files</p>
<table>
<tr><th>Seq</th><th>Description</th><th>Document</th><th>Type</th><th>Size</th></tr>
<tr><td>5</td><td>EXTRACTED XBRL INSTANCE DOCUMENT</td><td><a href="/Archives/edgar/data/320193/000032019324000001/aapl-20230930_htm.xml">aapl-20230930_htm.xml</a></td><td>XML</td><td>3000000</td></tr>
<tr><td>6</td><td>XBRL TAXONOMY EXTENSION SCHEMA</td><td><a href="/Archives/edgar/data/320193/000032019324000001/aapl-20230930.xsd">aapl-20230930.xsd</a></td><td>EX-101.SCH</td><td>100000</td></tr>
</table>
<!-- END DOCUMENT DIV -->
<p>Trailing content that must not be parsed</p>
</body></html>`

func TestDocumentDiscovery_Discover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "-index.htm") {
			w.Write([]byte(sampleFilingIndexPage))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	discovery := NewDocumentDiscovery(newTestClient(t, 0))
	filingTextURL := srv.URL + "/Archives/edgar/data/320193/0000320193-24-000001.txt"

	urls, err := discovery.Discover(context.Background(), filingTextURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Primary document: viewer link unwrapped, resolved absolute.
	wantPrimary := srv.URL + "/Archives/edgar/data/320193/000032019324000001/aapl-20230930.htm"
	if urls["10-K"] != wantPrimary {
		t.Errorf("primary document:\n got %s\nwant %s", urls["10-K"], wantPrimary)
	}
	if !urls.HasPrimaryDocument(domain.FormType10K) {
		t.Error("expected primary document for 10-K")
	}

	// Exhibits keyed by type.
	if !strings.HasSuffix(urls["EX-31.1"], "/ex311.htm") {
		t.Errorf("unexpected exhibit URL: %s", urls["EX-31.1"])
	}

	// Non-document extensions are dropped from the document section.
	for key, u := range urls {
		if strings.HasSuffix(u, "logo.jpg") {
			t.Errorf("graphic row must be filtered, found under key %q", key)
		}
	}

	// Complete submission text recognized by description.
	if !strings.HasSuffix(urls[domain.DocKeyCompleteText], "/0000320193-24-000001.txt") {
		t.Errorf("unexpected complete text URL: %s", urls[domain.DocKeyCompleteText])
	}

	// Data files: instance document gets the canonical key, the rest are
	// prefixed by section.
	if !strings.HasSuffix(urls[domain.DocKeyXBRLInstance], "aapl-20230930_htm.xml") {
		t.Errorf("unexpected XBRL instance URL: %s", urls[domain.DocKeyXBRLInstance])
	}
	if !strings.HasSuffix(urls["xbrl_EX-101.SCH"], "aapl-20230930.xsd") {
		t.Errorf("unexpected schema URL: %s", urls["xbrl_EX-101.SCH"])
	}

	// Derived spreadsheet URL: same directory, accession without dashes.
	wantXlsx := srv.URL + "/Archives/edgar/data/320193/000032019324000001/Financial_Report.xlsx"
	if urls[domain.DocKeyFinancialReport] != wantXlsx {
		t.Errorf("financial report:\n got %s\nwant %s", urls[domain.DocKeyFinancialReport], wantXlsx)
	}
}

func TestDocumentDiscovery_DegradesWhenIndexUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	discovery := NewDocumentDiscovery(newTestClient(t, 0))
	filingTextURL := srv.URL + "/Archives/edgar/data/320193/0000320193-24-000001.txt"

	urls, err := discovery.Discover(context.Background(), filingTextURL)
	if err != nil {
		t.Fatalf("a missing index page must not abort the run: %v", err)
	}

	if urls[domain.DocKeyCompleteText] != filingTextURL {
		t.Errorf("expected fallback to the submission text URL, got %s", urls[domain.DocKeyCompleteText])
	}
	if urls[domain.DocKeyFinancialReport] == "" {
		t.Error("derived spreadsheet URL must be present even when degraded")
	}
	if len(urls) != 2 {
		t.Errorf("degraded map should carry exactly 2 entries, got %d: %v", len(urls), urls)
	}
}

func TestNormalizeViewerHref(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/ix?doc=/Archives/edgar/data/1/doc.htm", want: "/Archives/edgar/data/1/doc.htm"},
		{in: "/Archives/edgar/data/1/doc.htm", want: "/Archives/edgar/data/1/doc.htm"},
		{in: "/ix?other=x", want: "/ix?other=x"},
	}

	for _, tt := range tests {
		if got := normalizeViewerHref(tt.in); got != tt.want {
			t.Errorf("normalizeViewerHref(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "edgar/data/1/0000000001-24-000001.txt", want: "0000000001-24-000001"},
		{in: "doc.htm", want: "doc"},
		{in: "noext", want: "noext"},
	}

	for _, tt := range tests {
		if got := fileStem(tt.in); got != tt.want {
			t.Errorf("fileStem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
