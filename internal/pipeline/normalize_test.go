package pipeline

import (
	"strings"
	"testing"
	"time"

	"hhbot/internal/domain"
	"hhbot/internal/source/hh"
	"hhbot/pkg/logx"
)

func intp(v int) *int { return &v }

func rawVacancy() hh.Vacancy {
	return hh.Vacancy{
		ID:           "101",
		Name:         "Go developer",
		AlternateURL: "https://hh.example/vacancy/101",
		Employer:     &hh.Employer{Name: "Acme"},
		Salary:       &hh.Salary{From: intp(100000), To: intp(150000), Currency: "RUR"},
		Experience:   &hh.Dictionary{ID: "between1And3", Name: "1–3 years"},
		Schedule:     &hh.Dictionary{ID: "remote", Name: "Remote"},
		PublishedAt:  "2024-05-17T12:34:56+0300",
	}
}

func TestNormalizeFullRecord(t *testing.T) {
	now := time.Date(2024, 5, 17, 13, 0, 0, 0, time.UTC)
	p, err := Normalize(hh.Result{Region: "Moscow", Vacancy: rawVacancy()}, now)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.ExternalID != "101" || p.Title != "Go developer" || p.Company != "Acme" {
		t.Errorf("unexpected posting: %+v", p)
	}
	if p.Region != "Moscow" {
		t.Errorf("region = %q", p.Region)
	}
	if p.Salary != "100000 – 150000 RUR" {
		t.Errorf("salary = %q", p.Salary)
	}
	if p.WorkFormat != domain.WorkRemote {
		t.Errorf("work format = %q", p.WorkFormat)
	}
	if p.PublishedAt.IsZero() || p.FetchedAt != now {
		t.Errorf("timestamps: published=%v fetched=%v", p.PublishedAt, p.FetchedAt)
	}
}

func TestNormalizeSalaryVariants(t *testing.T) {
	cases := []struct {
		name   string
		salary *hh.Salary
		want   string
	}{
		{"both bounds", &hh.Salary{From: intp(100), To: intp(200), Currency: "EUR"}, "100 – 200 EUR"},
		{"lower only", &hh.Salary{From: intp(100), Currency: "EUR"}, "from 100 EUR"},
		{"upper only", &hh.Salary{To: intp(200), Currency: "EUR"}, "up to 200 EUR"},
		{"empty bounds", &hh.Salary{Currency: "EUR"}, "unspecified"},
		{"absent", nil, "unspecified"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatSalary(tc.salary); got != tc.want {
				t.Errorf("formatSalary = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyWorkFormat(t *testing.T) {
	cases := []struct {
		name     string
		schedule *hh.Dictionary
		want     domain.WorkFormat
	}{
		{"remote", &hh.Dictionary{ID: "remote"}, domain.WorkRemote},
		{"flexible", &hh.Dictionary{ID: "flexible"}, domain.WorkFlexible},
		{"full day", &hh.Dictionary{ID: "fullDay"}, domain.WorkOnSite},
		{"shift", &hh.Dictionary{ID: "shift"}, domain.WorkOnSite},
		{"absent", nil, domain.WorkUnspecified},
		{"empty id", &hh.Dictionary{}, domain.WorkUnspecified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyWorkFormat(tc.schedule); got != tc.want {
				t.Errorf("classifyWorkFormat = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCanonicalizeLinkStripsTracking(t *testing.T) {
	got, err := canonicalizeLink("https://hh.example/vacancy/101?from=share_ios&utm_source=tg#top")
	if err != nil {
		t.Fatalf("canonicalizeLink: %v", err)
	}
	if got != "https://hh.example/vacancy/101" {
		t.Errorf("canonicalized = %q", got)
	}
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	now := time.Now()

	missingTitle := rawVacancy()
	missingTitle.Name = "  "
	if _, err := Normalize(hh.Result{Vacancy: missingTitle}, now); err == nil {
		t.Error("expected error for missing title")
	}

	missingLink := rawVacancy()
	missingLink.AlternateURL = ""
	if _, err := Normalize(hh.Result{Vacancy: missingLink}, now); err == nil {
		t.Error("expected error for missing link")
	}

	badTime := rawVacancy()
	badTime.PublishedAt = "yesterday"
	_, err := Normalize(hh.Result{Vacancy: badTime}, now)
	if err == nil || !strings.Contains(err.Error(), "published_at") {
		t.Errorf("expected published_at error, got %v", err)
	}
}

func TestNormalizeAllDropsBadRecordsOnly(t *testing.T) {
	good := rawVacancy()
	bad := rawVacancy()
	bad.PublishedAt = "not-a-time"
	other := rawVacancy()
	other.ID = "102"
	other.AlternateURL = "https://hh.example/vacancy/102"

	got := normalizeAll([]hh.Result{
		{Region: "A", Vacancy: good},
		{Region: "A", Vacancy: bad},
		{Region: "B", Vacancy: other},
	}, time.Now(), logx.Nop())

	if len(got) != 2 {
		t.Fatalf("normalized %d records, want 2", len(got))
	}
	if got[0].Region != "A" || got[1].Region != "B" {
		t.Errorf("unexpected order: %+v", got)
	}
}
