package edgar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/timmy/edgarvault/internal/domain"
)

const sampleQuarterlyHeader = `<SEC-DOCUMENT>0000320193-24-000050.txt : 20240503
<SEC-HEADER>
CONFORMED SUBMISSION TYPE:	10-Q
CONFORMED PERIOD OF REPORT:	20240330
FILED AS OF DATE:		20240503
COMPANY DATA:
	COMPANY CONFORMED NAME:			Apple Inc.
	CENTRAL INDEX KEY:			0000320193
</SEC-HEADER>
<html>
<tr><td><a href="#">Document Fiscal Period Focus</a></td>
<td class="text"> Q2</td></tr>
<tr><td><a href="#">Document Fiscal Year Focus</a></td>
<td class="text"> 2024</td></tr>
</html>`

const sampleAnnualHeader = `<SEC-HEADER>
CONFORMED SUBMISSION TYPE:	10-K
CONFORMED PERIOD OF REPORT:	20230930
FILED AS OF DATE:		20231103
	COMPANY CONFORMED NAME:			Apple Inc.
</SEC-HEADER>`

func TestParseFiscalInfo_Quarterly(t *testing.T) {
	info := ParseFiscalInfo(sampleQuarterlyHeader)

	if info.FormType != domain.FormType10Q {
		t.Errorf("expected form 10-Q, got %q", info.FormType)
	}
	if info.FiscalYear != "2024" {
		t.Errorf("expected fiscal year 2024, got %q", info.FiscalYear)
	}
	if info.FiscalPeriod != domain.FiscalQ2 {
		t.Errorf("expected Q2 from the fiscal period tag, got %q", info.FiscalPeriod)
	}
	if info.PeriodEndDate != "2024-03-30" {
		t.Errorf("unexpected period end date: %q", info.PeriodEndDate)
	}
	if info.DateFiled != "2024-05-03" {
		t.Errorf("unexpected date filed: %q", info.DateFiled)
	}
	if info.CompanyName != "Apple Inc." {
		t.Errorf("unexpected company name: %q", info.CompanyName)
	}
}

func TestParseFiscalInfo_AnnualDefaults(t *testing.T) {
	info := ParseFiscalInfo(sampleAnnualHeader)

	if info.FormType != domain.FormType10K {
		t.Errorf("expected form 10-K, got %q", info.FormType)
	}
	// No fiscal year tag: falls back to the period of report year.
	if info.FiscalYear != "2023" {
		t.Errorf("expected fiscal year from period of report, got %q", info.FiscalYear)
	}
	// Annual reports always cover the full year.
	if info.FiscalPeriod != domain.FiscalFY {
		t.Errorf("expected FY, got %q", info.FiscalPeriod)
	}
}

func TestParseFiscalInfo_QuarterFallsBackToPeriodEnd(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantYear   string
		wantPeriod domain.FiscalPeriod
	}{
		{
			name: "june quarter end",
			content: `CONFORMED SUBMISSION TYPE:	10-Q
CONFORMED PERIOD OF REPORT:	20240630`,
			wantYear:   "2024",
			wantPeriod: domain.FiscalQ2,
		},
		{
			name: "march quarter end rounds to Q1",
			content: `CONFORMED SUBMISSION TYPE:	10-Q
CONFORMED PERIOD OF REPORT:	20230331`,
			wantYear:   "2023",
			wantPeriod: domain.FiscalQ1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseFiscalInfo(tt.content)
			if info.FormType != domain.FormType10Q {
				t.Errorf("expected form 10-Q, got %q", info.FormType)
			}
			if info.FiscalYear != tt.wantYear {
				t.Errorf("expected fiscal year %s, got %q", tt.wantYear, info.FiscalYear)
			}
			if info.FiscalPeriod != tt.wantPeriod {
				t.Errorf("expected %s derived from period end, got %q", tt.wantPeriod, info.FiscalPeriod)
			}
		})
	}
}

func TestParseFiscalInfo_Empty(t *testing.T) {
	info := ParseFiscalInfo("nothing useful here")
	if info.FormType != "" || info.FiscalYear != "" || info.FiscalPeriod != "" {
		t.Errorf("expected empty info, got %+v", info)
	}
}

func TestQuarterFromDate(t *testing.T) {
	tests := []struct {
		name string
		date string
		want domain.FiscalPeriod
	}{
		{name: "calendar Q1 end", date: "2024-03-30", want: domain.FiscalQ1},
		{name: "calendar Q2 end", date: "2024-06-29", want: domain.FiscalQ2},
		{name: "calendar Q3 end", date: "2024-09-28", want: domain.FiscalQ3},
		{name: "calendar Q4 end", date: "2024-12-31", want: domain.FiscalQ4},
		{name: "early march is Q1 by month", date: "2024-03-15", want: domain.FiscalQ1},
		{name: "april buckets to Q1", date: "2024-04-30", want: domain.FiscalQ1},
		{name: "may buckets to Q2", date: "2024-05-04", want: domain.FiscalQ2},
		{name: "july buckets to Q2", date: "2024-07-31", want: domain.FiscalQ2},
		{name: "august buckets to Q3", date: "2024-08-03", want: domain.FiscalQ3},
		{name: "october buckets to Q3", date: "2024-10-31", want: domain.FiscalQ3},
		{name: "november buckets to Q4", date: "2024-11-02", want: domain.FiscalQ4},
		{name: "alternate layout", date: "Jun 29, 2024", want: domain.FiscalQ2},
		{name: "unparseable defaults to Q1", date: "garbage", want: domain.FiscalQ1},
		{name: "empty defaults to Q1", date: "", want: domain.FiscalQ1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuarterFromDate(tt.date); got != tt.want {
				t.Errorf("QuarterFromDate(%q) = %s, want %s", tt.date, got, tt.want)
			}
		})
	}
}

func TestEstimateAnnualFiscalYear(t *testing.T) {
	tests := []struct {
		dateFiled string
		want      string
	}{
		// Annual reports filed January through May cover the previous year.
		{dateFiled: "20240215", want: "2023"},
		{dateFiled: "20240531", want: "2023"},
		{dateFiled: "20240601", want: "2024"},
		{dateFiled: "20231103", want: "2023"},
		{dateFiled: "bogus", want: ""},
	}

	for _, tt := range tests {
		if got := EstimateAnnualFiscalYear(tt.dateFiled); got != tt.want {
			t.Errorf("EstimateAnnualFiscalYear(%q) = %q, want %q", tt.dateFiled, got, tt.want)
		}
	}
}

func TestFiscalExtractor_ExtractSoftFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	extractor := NewFiscalExtractor(newTestClient(t, 0))
	info, err := extractor.Extract(context.Background(), srv.URL+"/missing.txt")
	if err != nil {
		t.Fatalf("a missing submission text must not abort the run: %v", err)
	}
	if info.FormType != "" {
		t.Errorf("expected empty info on miss, got %+v", info)
	}
}
