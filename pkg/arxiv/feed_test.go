package arxiv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"
      xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/"
      xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>ArXiv Query: search_query=all:"transformer models"</title>
  <id>http://arxiv.org/api/example</id>
  <updated>2024-01-15T00:00:00-05:00</updated>
  <opensearch:totalResults>1120</opensearch:totalResults>
  <opensearch:startIndex>0</opensearch:startIndex>
  <opensearch:itemsPerPage>2</opensearch:itemsPerPage>
  <entry>
    <id>http://arxiv.org/abs/2301.00001v2</id>
    <updated>2023-06-01T12:00:00Z</updated>
    <published>2023-01-01T09:30:00Z</published>
    <title>Attention Is
 All You Need Again</title>
    <summary>We revisit attention
 mechanisms across   multiple
 lines.</summary>
    <author><name>Alice Example</name></author>
    <author><name>Bob Sample</name></author>
    <link href="http://arxiv.org/abs/2301.00001v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2301.00001v2" rel="related" type="application/pdf"/>
    <arxiv:primary_category xmlns:arxiv="http://arxiv.org/schemas/atom" term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2302.99999v1</id>
    <updated>2023-02-10T08:00:00Z</updated>
    <published>2023-02-10T08:00:00Z</published>
    <title>A Second Paper</title>
    <summary>Short abstract.</summary>
    <author><name>Carol Test</name></author>
    <link href="http://arxiv.org/abs/2302.99999v1" rel="alternate" type="text/html"/>
    <category term="stat.ML" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"
      xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <title>ArXiv Query: search_query=all:"nothing here"</title>
  <id>http://arxiv.org/api/empty</id>
  <updated>2024-01-15T00:00:00-05:00</updated>
  <opensearch:totalResults>0</opensearch:totalResults>
</feed>`

func TestParseFeed(t *testing.T) {
	page, err := ParseFeed([]byte(sampleFeed))
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Equal(t, 1120, page.TotalResults)
	require.Len(t, page.Papers, 2)

	first := page.Papers[0]
	assert.Equal(t, "2301.00001", first.ArxivID, "version suffix should be stripped")
	assert.Equal(t, "Attention Is All You Need Again", first.Title)
	assert.Equal(t, "We revisit attention mechanisms across multiple lines.", first.Abstract)
	assert.Equal(t, []string{"Alice Example", "Bob Sample"}, first.Authors)
	assert.Equal(t, []string{"cs.LG", "cs.CL"}, first.Categories, "primary category first, no duplicates")
	assert.Equal(t, "http://arxiv.org/pdf/2301.00001v2", first.PDFURL)
	assert.Equal(t, "http://arxiv.org/abs/2301.00001v2", first.EntryURL)
	assert.Equal(t, time.Date(2023, 1, 1, 9, 30, 0, 0, time.UTC), first.Published.UTC())
	assert.Equal(t, time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC), first.Updated.UTC())

	second := page.Papers[1]
	assert.Equal(t, "2302.99999", second.ArxivID)
	assert.Equal(t, []string{"stat.ML"}, second.Categories)
	assert.Empty(t, second.PDFURL)
}

func TestParseFeedEmpty(t *testing.T) {
	page, err := ParseFeed([]byte(emptyFeed))
	require.NoError(t, err)

	assert.Equal(t, 0, page.TotalResults)
	assert.Empty(t, page.Papers)
}

func TestParseFeedInvalid(t *testing.T) {
	_, err := ParseFeed([]byte("this is not xml at all <<<"))
	assert.Error(t, err)
}

func TestStripVersion(t *testing.T) {
	tests := []struct {
		name    string
		entryID string
		want    string
	}{
		{"abs url with version", "http://arxiv.org/abs/2301.00001v2", "2301.00001"},
		{"abs url without version", "http://arxiv.org/abs/2301.00001", "2301.00001"},
		{"old style identifier", "http://arxiv.org/abs/cond-mat/0702594v1", "0702594"},
		{"bare id with version", "2301.00001v13", "2301.00001"},
		{"bare id", "2301.00001", "2301.00001"},
		{"v in the middle is kept", "http://arxiv.org/abs/2301.0v001", "2301.0v001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripVersion(tt.entryID))
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", collapseWhitespace("a\n b\t\t c"))
	assert.Equal(t, "", collapseWhitespace("  \n\t "))
	assert.Equal(t, "plain", collapseWhitespace("plain"))
}
