package edgar

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/timmy/edgarvault/internal/domain"
	"github.com/timmy/edgarvault/internal/logger"
)

var (
	// form.<N>.idx files inside a quarterly daily-index directory listing.
	idxFilePattern = regexp.MustCompile(`^form\.\d+\.idx$`)

	// One data line of a form index file: form type, company name (greedy up
	// to a run of 2+ spaces), CIK, 8-digit filing date, relative .txt path.
	indexLinePattern = regexp.MustCompile(
		`^(?P<form_type>\S+)\s+(?P<company_name>.+?)\s{2,}(?P<cik>\d+)\s+(?P<date_filed>\d{8})\s+(?P<file_name>\S+\.txt)$`)
)

// IndexParser turns quarterly daily-index listings into per-day index file
// URLs, and index files into filing descriptors.
type IndexParser struct {
	client         *Client
	dailyIndexBase string
	archiveBase    string
}

// NewIndexParser creates an index parser.
// Parameters:
//   - client: rate-limited fetch client.
//   - dailyIndexBase: base URL of the daily-index tree.
//   - archiveBase: base URL of the archive root (filing paths are relative to it).
// Returns:
//   - *IndexParser: parser instance.
func NewIndexParser(client *Client, dailyIndexBase, archiveBase string) *IndexParser {
	return &IndexParser{
		client:         client,
		dailyIndexBase: strings.TrimRight(dailyIndexBase, "/"),
		archiveBase:    strings.TrimRight(archiveBase, "/"),
	}
}

// ListIndexFiles fetches a quarter's directory listing and returns the
// absolute URLs of its per-day form index files. Fetch failures are logged
// and yield an empty slice; only fatal fetch conditions return an error.
// Parameters:
//   - ctx: request context.
//   - year: calendar year.
//   - quarter: 1..4.
// Returns:
//   - []string: absolute form.<N>.idx URLs in listing order.
//   - error: *FatalError only.
func (p *IndexParser) ListIndexFiles(ctx context.Context, year, quarter int) ([]string, error) {
	dirURL := fmt.Sprintf("%s/%d/QTR%d/", p.dailyIndexBase, year, quarter)

	resp, err := p.client.Get(ctx, dirURL)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		logger.CtxError(ctx, "Failed to download index listing for %d Q%d (status %d)", year, quarter, resp.StatusCode)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		logger.CtxError(ctx, "Failed to parse index listing for %d Q%d: %v", year, quarter, err)
		return nil, nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if idxFilePattern.MatchString(href) {
			links = append(links, dirURL+href)
		}
	})

	return links, nil
}

// ParseIndexFile fetches one per-day index file and returns descriptors for
// every target-form filing it lists. Unparseable lines are logged and
// skipped; filings outside the target form set are dropped.
// Parameters:
//   - ctx: request context.
//   - idxURL: absolute URL of a form.<N>.idx file.
// Returns:
//   - []domain.FilingDescriptor: descriptors in listing order.
//   - error: *FatalError only.
func (p *IndexParser) ParseIndexFile(ctx context.Context, idxURL string) ([]domain.FilingDescriptor, error) {
	resp, err := p.client.Get(ctx, idxURL)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		logger.CtxError(ctx, "Failed to fetch index file %s (status %d)", urlFileName(idxURL), resp.StatusCode)
		return nil, nil
	}

	lines := strings.Split(resp.Text(), "\n")

	// Header ends at a line consisting entirely of dashes.
	dataStart := 0
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if len(trimmed) > 0 && strings.Count(trimmed, "-") == len(trimmed) {
			dataStart = i + 1
			break
		}
	}
	if dataStart == 0 {
		logger.CtxWarn(ctx, "Index file %s has no header separator", urlFileName(idxURL))
		return nil, nil
	}

	var filings []domain.FilingDescriptor
	for _, line := range lines[dataStart:] {
		desc, ok := p.parseIndexLine(ctx, strings.TrimRight(line, "\r"))
		if ok {
			filings = append(filings, desc)
		}
	}

	return filings, nil
}

// parseIndexLine parses one index data line into a descriptor. Returns
// ok=false for blank lines, lines that don't match the fixed layout, and
// filings outside the target form set.
func (p *IndexParser) parseIndexLine(ctx context.Context, line string) (domain.FilingDescriptor, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return domain.FilingDescriptor{}, false
	}

	m := indexLinePattern.FindStringSubmatch(trimmed)
	if m == nil {
		logger.CtxDebug(ctx, "Could not parse index line: %s", trimmed)
		return domain.FilingDescriptor{}, false
	}

	groups := make(map[string]string, len(m))
	for i, name := range indexLinePattern.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}

	formType := strings.TrimSpace(groups["form_type"])
	if !domain.IsTargetForm(formType) {
		return domain.FilingDescriptor{}, false
	}

	fileName := strings.TrimSpace(groups["file_name"])
	segments := strings.Split(fileName, "/")
	if len(segments) < 2 {
		logger.CtxDebug(ctx, "Index line has unexpected file path: %s", fileName)
		return domain.FilingDescriptor{}, false
	}

	// The CIK in the path is authoritative; the column value may be truncated.
	cik := PadCIK(segments[len(segments)-2])
	accession := strings.SplitN(segments[len(segments)-1], ".", 2)[0]

	sourceURL := p.archiveBase + "/edgar/" + fileName
	if strings.Contains(fileName, "edgar") {
		sourceURL = p.archiveBase + "/" + fileName
	}

	return domain.FilingDescriptor{
		CompanyName:     strings.TrimSpace(groups["company_name"]),
		FormType:        domain.FormType(formType),
		CIK:             cik,
		DateFiled:       groups["date_filed"],
		AccessionNumber: accession,
		SourceURL:       sourceURL,
	}, true
}

// PadCIK zero-pads a CIK to the canonical 10 digits.
func PadCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimLeft(strings.TrimSpace(cik), "0"))
}
