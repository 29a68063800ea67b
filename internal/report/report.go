// Package report builds the on-demand postings export: a CSV document
// plus an aggregate text caption.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"hhbot/internal/domain"
	"hhbot/internal/storage"
	"hhbot/pkg/logx"
)

// Document is a ready-to-send export.
type Document struct {
	Name    string
	Data    []byte
	Caption string
}

// Store is the read-only slice of the storage API the report consumes.
type Store interface {
	ListAllPostings(ctx context.Context) ([]domain.Posting, error)
	Stats(ctx context.Context) (storage.Stats, error)
}

type Generator struct {
	store Store
	log   logx.Logger
}

func NewGenerator(store Store, log logx.Logger) *Generator {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Generator{store: store, log: log}
}

// Generate exports all postings ordered by publication time descending.
// It returns an error when the store is unreachable and a typed "empty"
// document when there is nothing to export.
func (g *Generator) Generate(ctx context.Context) (Document, error) {
	postings, err := g.store.ListAllPostings(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("list postings: %w", err)
	}
	if len(postings) == 0 {
		return Document{}, ErrNoData
	}
	stats, err := g.store.Stats(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("stats: %w", err)
	}

	data, err := renderCSV(postings)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Name:    fmt.Sprintf("vacancies_report_%s.csv", time.Now().Format("2006-01-02_15-04")),
		Data:    data,
		Caption: renderCaption(stats),
	}
	g.log.Info("report generated",
		logx.Int("rows", len(postings)),
		logx.Int("bytes", len(doc.Data)))
	return doc, nil
}

var ErrNoData = fmt.Errorf("no postings to report")

func renderCSV(postings []domain.Posting) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Title", "Company", "Region", "Salary", "Experience", "Work format", "Published", "Link"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, p := range postings {
		published := ""
		if !p.PublishedAt.IsZero() {
			published = p.PublishedAt.Format("2006-01-02 15:04")
		}
		row := []string{p.Title, p.Company, p.Region, p.Salary, p.Experience, string(p.WorkFormat), published, p.Link}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderCaption(st storage.Stats) string {
	var b strings.Builder
	b.WriteString("📊 Vacancy report\n")
	fmt.Fprintf(&b, "📅 %s\n", time.Now().Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "📌 Postings: %d\n", st.TotalPostings)
	fmt.Fprintf(&b, "🏢 Companies: %d\n", st.UniqueCompanies)
	if len(st.ByExperience) > 0 {
		b.WriteString("\n🧑‍💻 By experience:\n")
		for _, c := range st.ByExperience {
			fmt.Fprintf(&b, "• %s: %d\n", orUnknown(c.Category), c.Count)
		}
	}
	if len(st.ByWorkFormat) > 0 {
		b.WriteString("\n🏠 By work format:\n")
		for _, c := range st.ByWorkFormat {
			fmt.Fprintf(&b, "• %s: %d\n", orUnknown(c.Category), c.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
