package catalog

import (
	"errors"
	"fmt"
	"html"
	"io"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/stake-plus/gemtracker/src/shared/tracking"
)

const (
	nameHeader   = "Bot"
	authorHeader = "Autor / Team"
	badgeHeader  = "Col1"
	starImage    = "blackstar.png"
	starBadge    = "⭐"
)

// ErrNoTable is returned when the page has no leaderboard table.
var ErrNoTable = errors.New("catalog: leaderboard table not found")

var textPolicy = bluemonday.StrictPolicy()

// ParseLeaderboard extracts catalog entries from the leaderboard page. Header cells name
// the columns; empty headers are called Col{i}. Spacer rows and the trailing commit column
// are ignored.
func ParseLeaderboard(r io.Reader) ([]tracking.CatalogEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	var headers []string
	table.Find("th").Each(func(i int, th *goquery.Selection) {
		h := cellText(th)
		if h == "" {
			h = fmt.Sprintf("Col%d", i)
		}
		headers = append(headers, h)
	})

	nameCol, authorCol, badgeCol := -1, -1, -1
	for i, h := range headers {
		switch h {
		case nameHeader:
			nameCol = i
		case authorHeader:
			authorCol = i
		case badgeHeader:
			badgeCol = i
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("catalog: no %q column in leaderboard", nameHeader)
	}

	var entries []tracking.CatalogEntry
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.HasClass("spacer") {
			return
		}
		cells := row.Find("td")
		// the last column links the commit and is never part of an entry
		usable := cells.Length() - 1
		if usable <= nameCol {
			return
		}

		entry := tracking.CatalogEntry{Name: cellText(cells.Eq(nameCol))}
		if entry.Name == "" {
			return
		}
		if authorCol >= 0 && authorCol < usable {
			entry.Author = cellText(cells.Eq(authorCol))
		}

		cells.Slice(0, usable).Each(func(i int, cell *goquery.Selection) {
			if cell.HasClass("emoji") || i == badgeCol {
				entry.Badge = badgeText(cell)
			}
		})
		entries = append(entries, entry)
	})

	return entries, nil
}

func badgeText(cell *goquery.Selection) string {
	if src, ok := cell.Find("img").Attr("src"); ok && path.Base(src) == starImage {
		return starBadge
	}
	return cellText(cell)
}

// cellText strips the markup of a cell and collapses whitespace. The policy
// runs on the raw inner HTML, so entity-escaped text such as &lt;Zap&gt;
// survives as literal characters.
func cellText(sel *goquery.Selection) string {
	raw, err := sel.Html()
	if err != nil {
		raw = html.EscapeString(sel.Text())
	}
	s := html.UnescapeString(textPolicy.Sanitize(raw))
	return strings.Join(strings.Fields(s), " ")
}
