package edgar

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/timmy/edgarvault/internal/domain"
	"github.com/timmy/edgarvault/internal/logger"
)

// Section markers on a filing index page. Layout drift on the archive side
// is isolated to this file.
const (
	markerDocumentFiles = "Document Format Files"
	markerDataFiles     = "Data Files"
	markerEndOfDocument = "<!-- END DOCUMENT DIV -->"

	descCompleteText = "Complete submission text file"
	descXBRLInstance = "EXTRACTED XBRL INSTANCE DOCUMENT"
)

// documentRow is one table row of a filing index page.
type documentRow struct {
	Description string
	Type        string
	Href        string
}

// DocumentDiscovery maps a filing's complete submission URL to the typed set
// of document URLs that make up the filing.
type DocumentDiscovery struct {
	client *Client
}

// NewDocumentDiscovery creates a document discovery instance.
// Parameters:
//   - client: rate-limited fetch client.
// Returns:
//   - *DocumentDiscovery: discovery instance.
func NewDocumentDiscovery(client *Client) *DocumentDiscovery {
	return &DocumentDiscovery{client: client}
}

// Discover fetches the filing's index page (the .txt URL with the suffix
// swapped for -index.htm) and classifies every linked document. When the
// index page cannot be fetched the result degrades to the complete
// submission text plus the derived spreadsheet URL; discovery never fails
// soft-fatally.
// Parameters:
//   - ctx: request context.
//   - filingTextURL: absolute URL of the complete submission .txt.
// Returns:
//   - domain.DocumentURLMap: logical document key -> absolute URL.
//   - error: *FatalError only.
func (d *DocumentDiscovery) Discover(ctx context.Context, filingTextURL string) (domain.DocumentURLMap, error) {
	urls := domain.DocumentURLMap{
		domain.DocKeyFinancialReport: financialReportURL(filingTextURL),
	}

	indexURL := strings.TrimSuffix(filingTextURL, ".txt") + "-index.htm"

	resp, err := d.client.Get(ctx, indexURL)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		logger.CtxWarn(ctx, "Filing index page unavailable (status %d), degrading to submission text: %s",
			resp.StatusCode, urlFileName(indexURL))
		urls[domain.DocKeyCompleteText] = filingTextURL
		return urls, nil
	}

	docFiles, dataFiles := parseFilingIndex(resp.Text())

	completeFound := false
	for _, row := range docFiles {
		href := resolveHref(indexURL, row.Href)
		switch {
		case row.Description == descCompleteText:
			if !completeFound {
				urls[domain.DocKeyCompleteText] = href
				completeFound = true
			}
		case isDigits(row.Description) && isDigits(row.Type):
			urls[fileStem(row.Href)] = href
		case strings.Contains(row.Type, "nbsp") || row.Type == "":
			urls[row.Description] = href
		default:
			urls[row.Type] = href
		}
	}

	for _, row := range dataFiles {
		href := resolveHref(indexURL, row.Href)
		switch {
		case row.Description == descXBRLInstance:
			urls[domain.DocKeyXBRLInstance] = href
		case isDigits(row.Description) && isDigits(row.Type):
			urls[fileStem(row.Href)] = href
		case strings.Contains(row.Type, "nbsp") || row.Type == "":
			urls["xbrl_"+row.Description] = href
		default:
			urls["xbrl_"+row.Type] = href
		}
	}

	// A filing always has a complete submission text; fall back to the
	// original URL when the index page did not advertise one.
	if !completeFound {
		urls[domain.DocKeyCompleteText] = filingTextURL
	}

	return urls, nil
}

// parseFilingIndex splits the index page into its two sections and extracts
// the table rows of each. The Document Format Files section keeps only
// .htm/.html/.txt links; the Data Files section keeps every typed entry.
func parseFilingIndex(html string) (docFiles, dataFiles []documentRow) {
	docStart := strings.Index(html, markerDocumentFiles)
	dataStart := strings.Index(html, markerDataFiles)
	end := strings.Index(html, markerEndOfDocument)
	if end == -1 {
		end = len(html)
	}

	if docStart != -1 {
		docEnd := end
		if dataStart > docStart {
			docEnd = dataStart
		}
		docFiles = parseSectionRows(html[docStart:docEnd], true)
	}
	if dataStart != -1 {
		dataFiles = parseSectionRows(html[dataStart:end], false)
	}
	return docFiles, dataFiles
}

// parseSectionRows extracts {description, link, type} from every table row
// of one section. Rows without a link are dropped; empty or duplicate
// descriptions get a synthetic incrementing key so no row shadows another.
func parseSectionRows(fragment string, htmlOnly bool) []documentRow {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(fragment)))
	if err != nil {
		return nil
	}

	var rows []documentRow
	seen := make(map[string]bool)
	synthetic := 0

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 4 {
			return
		}

		description := strings.TrimSpace(cells.Eq(1).Text())
		href, ok := cells.Eq(2).Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		href = normalizeViewerHref(strings.TrimSpace(href))
		fileType := strings.TrimSpace(cells.Eq(3).Text())

		if htmlOnly && !hasDocumentExtension(href) {
			return
		}

		if description == "" || seen[description] {
			synthetic++
			description = fmt.Sprintf("%d", synthetic)
		}
		seen[description] = true

		rows = append(rows, documentRow{Description: description, Type: fileType, Href: href})
	})

	return rows
}

// normalizeViewerHref unwraps inline-viewer redirect links (/ix?doc=...)
// to the underlying document path.
func normalizeViewerHref(href string) string {
	if !strings.HasPrefix(href, "/ix?") {
		return href
	}
	q := href[strings.Index(href, "?")+1:]
	values, err := url.ParseQuery(q)
	if err != nil {
		return href
	}
	if doc := values.Get("doc"); doc != "" {
		return doc
	}
	return href
}

// financialReportURL derives the rendered-spreadsheet URL from the complete
// submission URL: same directory, accession with dashes removed.
func financialReportURL(filingTextURL string) string {
	dir := filingTextURL
	accession := ""
	if idx := strings.LastIndex(filingTextURL, "/"); idx != -1 {
		dir = filingTextURL[:idx]
		accession = fileStem(filingTextURL[idx+1:])
	}
	return dir + "/" + strings.ReplaceAll(accession, "-", "") + "/Financial_Report.xlsx"
}

func hasDocumentExtension(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasSuffix(lower, ".htm") ||
		strings.HasSuffix(lower, ".html") ||
		strings.HasSuffix(lower, ".txt")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// fileStem returns the last path segment without its extension.
func fileStem(p string) string {
	if idx := strings.LastIndex(p, "/"); idx != -1 {
		p = p[idx+1:]
	}
	return strings.SplitN(p, ".", 2)[0]
}

// resolveHref makes a document href absolute against the index page URL.
func resolveHref(indexURL, href string) string {
	base, err := url.Parse(indexURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
