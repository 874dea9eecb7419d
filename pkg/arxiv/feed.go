package arxiv

import (
	"bytes"
	"strconv"

	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"

	errs "arxivcollector/pkg/errors"
)

// ParseFeed parses an Atom response body from the arXiv API into a Page
func ParseFeed(body []byte) (*Page, error) {
	parser := &atom.Parser{}
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeParsing, "failed to parse Atom feed: %v", err)
	}

	page := &Page{
		Papers:       make([]Paper, 0, len(feed.Entries)),
		TotalResults: totalResults(feed.Extensions),
	}

	for _, entry := range feed.Entries {
		page.Papers = append(page.Papers, entryToPaper(entry))
	}

	return page, nil
}

// totalResults reads the advisory opensearch:totalResults feed extension
func totalResults(extensions ext.Extensions) int {
	opensearch, ok := extensions["opensearch"]
	if !ok {
		return 0
	}

	for _, name := range []string{"totalResults", "totalresults"} {
		if values := opensearch[name]; len(values) > 0 {
			if n, err := strconv.Atoi(values[0].Value); err == nil {
				return n
			}
		}
	}

	return 0
}

// entryToPaper maps one Atom entry to a Paper record
func entryToPaper(entry *atom.Entry) Paper {
	paper := Paper{
		ArxivID:  StripVersion(entry.ID),
		Title:    collapseWhitespace(entry.Title),
		Abstract: collapseWhitespace(entry.Summary),
	}

	for _, author := range entry.Authors {
		if author != nil && author.Name != "" {
			paper.Authors = append(paper.Authors, author.Name)
		}
	}

	paper.Categories = entryCategories(entry)

	if entry.PublishedParsed != nil {
		paper.Published = *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		paper.Updated = *entry.UpdatedParsed
	}

	for _, link := range entry.Links {
		if link == nil {
			continue
		}
		switch {
		case link.Type == "application/pdf":
			paper.PDFURL = link.Href
		case link.Rel == "alternate" || link.Rel == "":
			if paper.EntryURL == "" {
				paper.EntryURL = link.Href
			}
		}
	}

	return paper
}

// entryCategories collects the arxiv:primary_category term first, then the
// remaining category tags without duplicates
func entryCategories(entry *atom.Entry) []string {
	var categories []string
	seen := make(map[string]bool)

	if arxivExt, ok := entry.Extensions["arxiv"]; ok {
		if primary := arxivExt["primary_category"]; len(primary) > 0 {
			if term := primary[0].Attrs["term"]; term != "" {
				categories = append(categories, term)
				seen[term] = true
			}
		}
	}

	for _, category := range entry.Categories {
		if category == nil || category.Term == "" || seen[category.Term] {
			continue
		}
		categories = append(categories, category.Term)
		seen[category.Term] = true
	}

	return categories
}
