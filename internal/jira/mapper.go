package jira

import (
	"errors"
	"fmt"
	"strings"

	"flowlens/internal/changelog"

	"github.com/rs/zerolog/log"
)

// FieldEpicLink is the child-side record of an epic assignment.
const FieldEpicLink = "Epic Link"

// ErrMalformedIssue is returned when a tracker payload cannot be normalized.
var ErrMalformedIssue = errors.New("malformed issue payload")

// fieldVocabulary maps Jira changelog field names to the normalized vocabulary.
var fieldVocabulary = map[string]string{
	"status":     changelog.FieldStatus,
	"epic child": changelog.FieldEpicChild,
	"resolution": changelog.FieldResolution,
	"epic link":  FieldEpicLink,
}

// MapIssue normalizes a Jira issue and its changelog into a history record.
func MapIssue(dto IssueDTO) (changelog.History, error) {
	h := changelog.History{
		Key:           dto.Key,
		IssueType:     dto.Fields.IssueType.Name,
		CurrentStatus: dto.Fields.Status.Name,
	}
	if dto.Key == "" {
		return h, fmt.Errorf("%w: missing key", ErrMalformedIssue)
	}

	created, err := ParseTime(dto.Fields.Created)
	if err != nil {
		return h, fmt.Errorf("%w: %s: created: %w", ErrMalformedIssue, dto.Key, err)
	}
	h.CreatedAt = created

	if dto.Fields.ResolutionDate != "" {
		resolved, err := ParseTime(dto.Fields.ResolutionDate)
		if err != nil {
			return h, fmt.Errorf("%w: %s: resolutiondate: %w", ErrMalformedIssue, dto.Key, err)
		}
		h.ResolvedAt = &resolved
	}

	if dto.Changelog == nil {
		return h, nil
	}

	for _, history := range dto.Changelog.Histories {
		ts, err := ParseTime(history.Created)
		if err != nil {
			return h, fmt.Errorf("%w: %s: changelog: %w", ErrMalformedIssue, dto.Key, err)
		}
		for _, item := range history.Items {
			h.Entries = append(h.Entries, changelog.Entry{
				OccurredAt: ts,
				Field:      normalizeField(item.Field),
				From:       nullable(item.FromString),
				To:         nullable(item.ToString),
			})
		}
	}
	h.Entries = h.Entries.Sorted()

	return h, nil
}

// MapIssues normalizes a batch of issues, failing on the first malformed one.
func MapIssues(dtos []IssueDTO) ([]changelog.History, error) {
	histories := make([]changelog.History, 0, len(dtos))
	for _, dto := range dtos {
		h, err := MapIssue(dto)
		if err != nil {
			return nil, err
		}
		histories = append(histories, h)
	}
	return InvertEpicLinks(histories), nil
}

// InvertEpicLinks copies child-side "Epic Link" changes onto the epic's log as
// "Epic Child" entries, for trackers that only audit the child. Epics missing
// from the batch are skipped.
func InvertEpicLinks(histories []changelog.History) []changelog.History {
	byKey := make(map[string]int, len(histories))
	for i, h := range histories {
		byKey[h.Key] = i
	}

	added := 0
	for _, h := range histories {
		for _, e := range h.Entries.ByField(FieldEpicLink) {
			if idx, ok := byKey[e.FromValue()]; ok && e.FromValue() != "" {
				histories[idx].Entries = append(histories[idx].Entries, changelog.Entry{
					OccurredAt: e.OccurredAt, Field: changelog.FieldEpicChild, From: changelog.Value(h.Key),
				})
				added++
			}
			if idx, ok := byKey[e.ToValue()]; ok && e.ToValue() != "" {
				histories[idx].Entries = append(histories[idx].Entries, changelog.Entry{
					OccurredAt: e.OccurredAt, Field: changelog.FieldEpicChild, To: changelog.Value(h.Key),
				})
				added++
			}
		}
	}

	if added > 0 {
		for i := range histories {
			histories[i].Entries = histories[i].Entries.Dedup().Sorted()
		}
		log.Debug().Int("entries", added).Msg("Inverted epic links onto epic change logs")
	}
	return histories
}

func normalizeField(field string) string {
	if n, ok := fieldVocabulary[strings.ToLower(strings.TrimSpace(field))]; ok {
		return n
	}
	return field
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return changelog.Value(s)
}
