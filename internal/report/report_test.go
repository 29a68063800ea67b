package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"hhbot/internal/domain"
	"hhbot/internal/storage"
	"hhbot/pkg/logx"
)

type fakeStore struct {
	postings []domain.Posting
	stats    storage.Stats
	listErr  error
}

func (s *fakeStore) ListAllPostings(context.Context) ([]domain.Posting, error) {
	return s.postings, s.listErr
}

func (s *fakeStore) Stats(context.Context) (storage.Stats, error) {
	return s.stats, nil
}

func samplePostings() []domain.Posting {
	return []domain.Posting{
		{
			Title:       "Go developer",
			Company:     "Acme",
			Region:      "Moscow",
			Salary:      "from 100000 RUR",
			Experience:  "1–3 years",
			WorkFormat:  domain.WorkRemote,
			PublishedAt: time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC),
			Link:        "https://hh.example/vacancy/1",
		},
		{
			Title:      "Backend engineer, \"platform\" team",
			Company:    "Globex",
			Region:     "SPb",
			Salary:     "unspecified",
			WorkFormat: domain.WorkOnSite,
			Link:       "https://hh.example/vacancy/2",
		},
	}
}

func TestGenerateCSV(t *testing.T) {
	store := &fakeStore{
		postings: samplePostings(),
		stats: storage.Stats{
			TotalPostings:   2,
			UniqueCompanies: 2,
			ByWorkFormat: []storage.CategoryCount{
				{Category: "remote", Count: 1},
				{Category: "on-site", Count: 1},
			},
		},
	}

	doc, err := NewGenerator(store, logx.Nop()).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(doc.Name, "vacancies_report_") || !strings.HasSuffix(doc.Name, ".csv") {
		t.Errorf("name = %q", doc.Name)
	}

	rows, err := csv.NewReader(bytes.NewReader(doc.Data)).ReadAll()
	if err != nil {
		t.Fatalf("re-reading CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Title" || rows[0][7] != "Link" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Acme" || rows[1][6] != "2024-05-17 09:30" {
		t.Errorf("row 1 = %v", rows[1])
	}
	// Quoting survives the round trip, zero published time stays blank.
	if rows[2][0] != `Backend engineer, "platform" team` || rows[2][6] != "" {
		t.Errorf("row 2 = %v", rows[2])
	}
}

func TestGenerateCaption(t *testing.T) {
	store := &fakeStore{
		postings: samplePostings(),
		stats: storage.Stats{
			TotalPostings:   2,
			UniqueCompanies: 2,
			ByExperience: []storage.CategoryCount{
				{Category: "1–3 years", Count: 1},
				{Category: "", Count: 1},
			},
		},
	}

	doc, err := NewGenerator(store, logx.Nop()).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(doc.Caption, "Postings: 2") {
		t.Errorf("caption missing totals:\n%s", doc.Caption)
	}
	if !strings.Contains(doc.Caption, "1–3 years: 1") {
		t.Errorf("caption missing experience breakdown:\n%s", doc.Caption)
	}
	// Blank categories render as "unknown".
	if !strings.Contains(doc.Caption, "unknown: 1") {
		t.Errorf("caption missing unknown bucket:\n%s", doc.Caption)
	}
}

func TestGenerateEmpty(t *testing.T) {
	_, err := NewGenerator(&fakeStore{}, logx.Nop()).Generate(context.Background())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestGenerateStoreFailure(t *testing.T) {
	store := &fakeStore{listErr: errors.New("database is locked")}
	_, err := NewGenerator(store, logx.Nop()).Generate(context.Background())
	if err == nil || errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want a wrapped store error", err)
	}
}
