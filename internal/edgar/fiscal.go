package edgar

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/timmy/edgarvault/internal/domain"
	"github.com/timmy/edgarvault/internal/logger"
)

// Header tokens embedded in a complete submission text. Each field is
// searched independently; a miss leaves the field empty.
var (
	rePeriodOfReport = regexp.MustCompile(`(?i)CONFORMED PERIOD OF REPORT:\s*(\d{8})`)
	reFiscalPeriod   = regexp.MustCompile(`(?i)>Document Fiscal Period Focus</a></td>\s*<td class="text">\s*(Q[1-4])`)
	reFiscalYear     = regexp.MustCompile(`(?i)>Document Fiscal Year Focus</a></td>\s*<td class="text">\s*(\d{4})`)
	reSubmissionType = regexp.MustCompile(`(?i)CONFORMED SUBMISSION TYPE:\s*(\d+-[A-Za-z]+(?:/[A-Za-z])?)`)
	reCompanyName    = regexp.MustCompile(`(?i)COMPANY CONFORMED NAME:\s*(.+)`)
	reDateFiled      = regexp.MustCompile(`(?i)FILED AS OF DATE:\s*(\d{8})`)
)

// FiscalExtractor derives fiscal metadata from a filing's complete
// submission text. Extraction is best-effort: malformed content or absent
// headers degrade to empty fields and never abort the pipeline.
type FiscalExtractor struct {
	client *Client
}

// NewFiscalExtractor creates a fiscal metadata extractor.
// Parameters:
//   - client: rate-limited fetch client.
// Returns:
//   - *FiscalExtractor: extractor instance.
func NewFiscalExtractor(client *Client) *FiscalExtractor {
	return &FiscalExtractor{client: client}
}

// Extract fetches the complete submission text and pulls fiscal year,
// fiscal period, period end date, filed date, form type, and company name
// from its header tokens.
// Parameters:
//   - ctx: request context.
//   - completeTextURL: absolute URL of the complete submission .txt.
// Returns:
//   - domain.FiscalInfo: extracted metadata, fields empty when absent.
//   - error: *FatalError only.
func (e *FiscalExtractor) Extract(ctx context.Context, completeTextURL string) (domain.FiscalInfo, error) {
	var info domain.FiscalInfo

	resp, err := e.client.Get(ctx, completeTextURL)
	if err != nil {
		return info, err
	}
	if !resp.OK() {
		logger.CtxDebug(ctx, "Fiscal extraction skipped, submission text unavailable (status %d): %s",
			resp.StatusCode, urlFileName(completeTextURL))
		return info, nil
	}

	return ParseFiscalInfo(resp.Text()), nil
}

// ParseFiscalInfo extracts fiscal metadata from submission text content.
// Split out from Extract so synthetic content can be classified directly.
func ParseFiscalInfo(content string) domain.FiscalInfo {
	var info domain.FiscalInfo

	if m := reSubmissionType.FindStringSubmatch(content); m != nil {
		info.FormType = domain.FormType(strings.ToUpper(m[1]))
	}
	if m := reFiscalYear.FindStringSubmatch(content); m != nil {
		info.FiscalYear = m[1]
	}
	if m := rePeriodOfReport.FindStringSubmatch(content); m != nil {
		raw := m[1]
		info.PeriodEndDate = raw[:4] + "-" + raw[4:6] + "-" + raw[6:]
		info.PeriodEndYear = raw[:4]
		if info.FiscalYear == "" {
			info.FiscalYear = raw[:4]
		}
	}
	if m := reDateFiled.FindStringSubmatch(content); m != nil {
		raw := m[1]
		info.DateFiled = raw[:4] + "-" + raw[4:6] + "-" + raw[6:]
		info.DateFiledYear = raw[:4]
	}
	if m := reCompanyName.FindStringSubmatch(content); m != nil {
		info.CompanyName = strings.TrimSpace(m[1])
	}

	switch {
	case info.FormType.IsQuarterly():
		if m := reFiscalPeriod.FindStringSubmatch(content); m != nil {
			info.FiscalPeriod = domain.FiscalPeriod(strings.ToUpper(m[1]))
		} else if info.PeriodEndDate != "" {
			info.FiscalPeriod = QuarterFromDate(info.PeriodEndDate)
		}
	case info.FormType.IsAnnual():
		info.FiscalPeriod = domain.FiscalFY
	}

	return info
}

// QuarterFromDate maps a period end date to a fiscal quarter. Dates within
// the last few days of a quarter-end month (day >= 28 in March, June,
// September, December) round to that quarter; everything else buckets by
// month: 1-4 -> Q1, 5-7 -> Q2, 8-10 -> Q3, 11-12 -> Q4. Unparseable input
// defaults to Q1.
// Parameters:
//   - dateStr: date as YYYY-MM-DD or "Jan 2, 2006".
// Returns:
//   - domain.FiscalPeriod: derived quarter.
func QuarterFromDate(dateStr string) domain.FiscalPeriod {
	dateStr = strings.TrimSpace(strings.NewReplacer("\n", "", "\t", "").Replace(dateStr))
	if dateStr == "" {
		return domain.FiscalQ1
	}

	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		t, err = time.Parse("Jan 2, 2006", dateStr)
		if err != nil {
			logger.GetDefault().Debugf("Could not parse period end date: %s", dateStr)
			return domain.FiscalQ1
		}
	}

	month := int(t.Month())
	day := t.Day()

	if day >= 28 {
		switch month {
		case 3:
			return domain.FiscalQ1
		case 6:
			return domain.FiscalQ2
		case 9:
			return domain.FiscalQ3
		case 12:
			return domain.FiscalQ4
		}
	}

	switch {
	case month <= 4:
		return domain.FiscalQ1
	case month <= 7:
		return domain.FiscalQ2
	case month <= 10:
		return domain.FiscalQ3
	default:
		return domain.FiscalQ4
	}
}

// EstimateAnnualFiscalYear guesses a 10-K's fiscal year from its filing
// date: annual reports filed January through May cover the previous year.
// Parameters:
//   - dateFiled: filing date as YYYYMMDD.
// Returns:
//   - string: estimated 4-digit fiscal year, or empty on bad input.
func EstimateAnnualFiscalYear(dateFiled string) string {
	t, err := time.Parse("20060102", dateFiled)
	if err != nil {
		return ""
	}
	year := t.Year()
	if int(t.Month()) <= 5 {
		year--
	}
	return strconv.Itoa(year)
}
