package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// Source supplies raw issues with their changelogs. Network clients live
// outside this module; FileSource reads an exported search response.
type Source interface {
	FetchIssues(ctx context.Context) ([]IssueDTO, error)
}

// FileSource reads a saved Jira search response (expand=changelog) from disk.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// FetchIssues decodes the file, accepting either a search response object or a bare issue array.
func (s *FileSource) FetchIssues(ctx context.Context) ([]IssueDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	var resp SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		var issues []IssueDTO
		if errArr := json.Unmarshal(data, &issues); errArr != nil {
			return nil, fmt.Errorf("failed to decode export %s: %w", s.Path, err)
		}
		resp.Issues = issues
	}

	log.Info().Str("path", s.Path).Int("count", len(resp.Issues)).Msg("Loaded issues from export")
	return resp.Issues, nil
}
