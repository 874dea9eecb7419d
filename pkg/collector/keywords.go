package collector

import (
	"context"
	"os"
	"strings"

	errs "arxivcollector/pkg/errors"
	"arxivcollector/pkg/logger"
	"arxivcollector/pkg/store"
)

// LoadKeywordsFile loads newline-delimited keywords from path into the
// store. Blank lines are skipped and duplicates are ignored, so re-loading
// the same file never creates extra work.
func LoadKeywordsFile(ctx context.Context, st *store.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errs.Newf(errs.ErrorTypeConfig, "failed to read keywords file %s: %v", path, err)
	}

	var keywords []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		keywords = append(keywords, line)
	}

	inserted, err := st.InsertKeywords(ctx, keywords)
	if err != nil {
		return 0, err
	}

	logger.GetLogger().InfoWithFields("keywords loaded", map[string]interface{}{
		"file":     path,
		"keywords": len(keywords),
		"new":      inserted,
	})

	return len(keywords), nil
}
