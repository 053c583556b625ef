package europepmc

// SearchResponse ist die Top-Level-Struktur der Europe PMC API-Antwort.
type SearchResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Result []Article `json:"result"`
	} `json:"resultList"`
}

// Article repräsentiert einen einzelnen Artikel in der API-Antwort (resultType=core).
type Article struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	PMID    string `json:"pmid"`
	DOI     string `json:"doi"`
	Title   string `json:"title"`
	PubYear string `json:"pubYear"`
	// z.B. "044101" oder "123-130"
	PageInfo   string `json:"pageInfo"`
	AuthorList struct {
		Author []Author `json:"author"`
	} `json:"authorList"`
	JournalInfo struct {
		Issue             string `json:"issue"`
		Volume            string `json:"volume"`
		YearOfPublication int    `json:"yearOfPublication"`
		Journal           struct {
			Title           string `json:"title"`
			ISOAbbreviation string `json:"isoabbreviation"`
		} `json:"journal"`
	} `json:"journalInfo"`
	BookOrReportDetails struct {
		Publisher string `json:"publisher"`
		ISBN13    string `json:"isbn13"`
	} `json:"bookOrReportDetails"`
	FullTextURLList struct {
		FullTextURL []FullTextURL `json:"fullTextUrl"`
	} `json:"fullTextUrlList"`
	PubTypeList struct {
		PubType []string `json:"pubType"`
	} `json:"pubTypeList"`
}

// Author ist ein Eintrag der Autorenliste; Kollektive haben nur CollectiveName.
type Author struct {
	FullName       string `json:"fullName"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Initials       string `json:"initials"`
	CollectiveName string `json:"collectiveName"`
}

// FullTextURL repräsentiert einen einzelnen Volltext-Link.
type FullTextURL struct {
	Availability     string `json:"availability"`
	AvailabilityCode string `json:"availabilityCode"`
	DocumentStyle    string `json:"documentStyle"`
	Site             string `json:"site"`
	URL              string `json:"url"`
}
