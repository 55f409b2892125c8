package fetcher

// RawDocument is the result of fetching one URL: either a Page or a Failure.
type RawDocument interface {
	// Location returns the URL the document was fetched from.
	Location() string
	isRawDocument()
}

// Page is a successfully fetched and extracted documentation page.
type Page struct {
	URL     string
	Title   string
	Content string
	Source  string
}

// Failure records a URL that could not be fetched or parsed.
type Failure struct {
	URL     string
	Message string
}

func (p Page) Location() string    { return p.URL }
func (f Failure) Location() string { return f.URL }

func (Page) isRawDocument()    {}
func (Failure) isRawDocument() {}

// Error implements error so a Failure can be reported directly.
func (f Failure) Error() string { return f.URL + ": " + f.Message }
