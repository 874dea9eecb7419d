package arxiv

import (
	"fmt"
	"net/url"
	"strconv"
)

// BaseURL is the default arXiv query API endpoint
const BaseURL = "http://export.arxiv.org/api/query"

// BuildQueryURL builds the query URL for one page of results. The search
// expression quotes the keyword and matches across all fields.
func BuildQueryURL(baseURL, keyword string, start, maxResults int, sortBy, sortOrder string) string {
	params := url.Values{}
	params.Set("search_query", fmt.Sprintf("all:%q", keyword))
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", sortBy)
	params.Set("sortOrder", sortOrder)

	return baseURL + "?" + params.Encode()
}
