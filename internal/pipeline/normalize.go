package pipeline

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"hhbot/internal/domain"
	"hhbot/internal/source/hh"
	"hhbot/pkg/logx"
)

// Normalize maps one raw source record into a canonical posting.
// A record missing its required fields or carrying an unparseable
// timestamp is rejected; the caller drops it and moves on.
func Normalize(res hh.Result, now time.Time) (domain.Posting, error) {
	v := res.Vacancy

	title := strings.TrimSpace(v.Name)
	if title == "" {
		return domain.Posting{}, fmt.Errorf("record %s: missing title", v.ID)
	}
	link, err := canonicalizeLink(v.AlternateURL)
	if err != nil {
		return domain.Posting{}, fmt.Errorf("record %s: %w", v.ID, err)
	}

	published, err := time.Parse(hh.PublishedLayout, v.PublishedAt)
	if err != nil {
		return domain.Posting{}, fmt.Errorf("record %s: bad published_at %q: %w", v.ID, v.PublishedAt, err)
	}

	p := domain.Posting{
		ExternalID:  v.ID,
		Title:       title,
		Link:        link,
		Salary:      formatSalary(v.Salary),
		WorkFormat:  classifyWorkFormat(v.Schedule),
		Region:      res.Region,
		PublishedAt: published,
		FetchedAt:   now,
	}
	if v.Employer != nil {
		p.Company = strings.TrimSpace(v.Employer.Name)
	}
	if v.Experience != nil {
		p.Experience = strings.TrimSpace(v.Experience.Name)
	}
	return p, nil
}

// normalizeAll drops malformed records individually; one bad record never
// aborts the rest of the batch.
func normalizeAll(results []hh.Result, now time.Time, log logx.Logger) []domain.Posting {
	out := make([]domain.Posting, 0, len(results))
	for _, res := range results {
		p, err := Normalize(res, now)
		if err != nil {
			log.Warn("dropping malformed record", logx.Err(err))
			continue
		}
		out = append(out, p)
	}
	return out
}

// canonicalizeLink strips query parameters and fragments so tracking
// variants of the same vacancy URL dedup to a single key.
func canonicalizeLink(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("missing link")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("bad link %q: %w", raw, err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func formatSalary(s *hh.Salary) string {
	if s == nil {
		return "unspecified"
	}
	switch {
	case s.From != nil && s.To != nil:
		return fmt.Sprintf("%d – %d %s", *s.From, *s.To, s.Currency)
	case s.From != nil:
		return fmt.Sprintf("from %d %s", *s.From, s.Currency)
	case s.To != nil:
		return fmt.Sprintf("up to %d %s", *s.To, s.Currency)
	default:
		return "unspecified"
	}
}

func classifyWorkFormat(schedule *hh.Dictionary) domain.WorkFormat {
	if schedule == nil || schedule.ID == "" {
		return domain.WorkUnspecified
	}
	switch schedule.ID {
	case "remote":
		return domain.WorkRemote
	case "flexible":
		return domain.WorkFlexible
	default:
		return domain.WorkOnSite
	}
}
