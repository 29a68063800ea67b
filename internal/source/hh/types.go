package hh

// Wire types mirroring the HH vacancies API response. Only the fields the
// pipeline consumes are declared.

type searchResponse struct {
	Items []Vacancy `json:"items"`
	Found int       `json:"found"`
	Pages int       `json:"pages"`
	Page  int       `json:"page"`
}

// Vacancy is one raw record as returned by the source.
type Vacancy struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	AlternateURL string      `json:"alternate_url"`
	Employer     *Employer   `json:"employer"`
	Salary       *Salary     `json:"salary"`
	Experience   *Dictionary `json:"experience"`
	Schedule     *Dictionary `json:"schedule"`
	Area         *Dictionary `json:"area"`
	PublishedAt  string      `json:"published_at"`
}

type Employer struct {
	Name string `json:"name"`
}

// Salary carries optional bounds; either side may be absent.
type Salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
	Gross    bool   `json:"gross"`
}

// Dictionary is the API's {id, name} reference pair.
type Dictionary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PublishedLayout is the timestamp layout the API uses, e.g.
// "2024-05-17T12:34:56+0300".
const PublishedLayout = "2006-01-02T15:04:05-0700"

// Result is a raw record tagged with the region it was fetched for.
type Result struct {
	Region  string
	Vacancy Vacancy
}
