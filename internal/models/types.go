
package models

import "encoding/json"

// Vocabulary names one embedded structured-data markup format.
type Vocabulary string

const (
	Microdata   Vocabulary = "microdata"
	JSONLD      Vocabulary = "json-ld"
	OpenGraph   Vocabulary = "opengraph"
	Microformat Vocabulary = "microformat"
	RDFa        Vocabulary = "rdfa"
)

// Vocabularies lists every vocabulary in the order they are reported.
func Vocabularies() []Vocabulary {
	return []Vocabulary{Microdata, JSONLD, OpenGraph, Microformat, RDFa}
}

// StructuredData maps a vocabulary to the property mappings found for it.
type StructuredData map[Vocabulary][]map[string]any

// ErrorKind classifies a failure recorded on an annotation.
type ErrorKind string

const FetchFailed ErrorKind = "FetchFailed"

type ErrorCondition struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ErrorCondition) Error() string { return string(e.Kind) + ": " + e.Message }

// Annotation is the extraction result for a single web link. When ErrorCondition
// is set no other field besides URL is populated.
type Annotation struct {
	URL            string            `json:"url"`
	ErrorCondition *ErrorCondition   `json:"error_condition,omitempty"`
	JSONResponse   any               `json:"json_response,omitempty"`
	StructuredData StructuredData    `json:"structured_data,omitempty"`
	MetaContent    map[string]string `json:"meta_content"`
	// XMLMetaSummary is attached by external enrichment, never by the extractor.
	XMLMetaSummary map[string]any `json:"xml_meta_summary,omitempty"`
}

// Failed reports whether the fetch behind the annotation failed.
func (a *Annotation) Failed() bool { return a != nil && a.ErrorCondition != nil }

// MarshalJSON writes meta_content only when it was extracted: a failed fetch
// has no meta_content key, a page without meta tags has "meta_content": {}.
func (a Annotation) MarshalJSON() ([]byte, error) {
	type plain Annotation
	out := struct {
		plain
		MetaContent *map[string]string `json:"meta_content,omitempty"`
	}{plain: plain(a)}
	if a.MetaContent != nil {
		out.MetaContent = &a.MetaContent
	}
	return json.Marshal(out)
}

// Clone returns a deep copy, so annotations handed to several links share no
// maps or slices.
func (a Annotation) Clone() Annotation {
	out := a
	if a.ErrorCondition != nil {
		ec := *a.ErrorCondition
		out.ErrorCondition = &ec
	}
	out.JSONResponse = deepCopy(a.JSONResponse)
	if a.StructuredData != nil {
		out.StructuredData = make(StructuredData, len(a.StructuredData))
		for v, items := range a.StructuredData {
			cp := make([]map[string]any, len(items))
			for i, it := range items {
				cp[i], _ = deepCopy(it).(map[string]any)
			}
			out.StructuredData[v] = cp
		}
	}
	if a.MetaContent != nil {
		out.MetaContent = make(map[string]string, len(a.MetaContent))
		for k, v := range a.MetaContent {
			out.MetaContent[k] = v
		}
	}
	if a.XMLMetaSummary != nil {
		out.XMLMetaSummary, _ = deepCopy(a.XMLMetaSummary).(map[string]any)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	case map[string]string:
		if t == nil {
			return t
		}
		out := make(map[string]string, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

const (
	LinkTitleReference = "Model Reference Link"
	LinkTitleOutput    = "Model Output Data"
)

type WebLink struct {
	Type       string      `json:"type,omitempty"`
	TypeLabel  string      `json:"typeLabel,omitempty"`
	URI        string      `json:"uri"`
	Rel        string      `json:"rel,omitempty"`
	Title      string      `json:"title,omitempty"`
	Hidden     bool        `json:"hidden"`
	Annotation *Annotation `json:"annotation,omitempty"`
}

// NewWebLink builds a related web link in the catalog's expected shape.
func NewWebLink(uri, title string) WebLink {
	if title == "" {
		title = LinkTitleReference
	}
	return WebLink{
		Type:      "webLink",
		TypeLabel: "Web Link",
		URI:       uri,
		Rel:       "related",
		Title:     title,
	}
}

type Contact struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	OldPartyID     int64  `json:"oldPartyId,omitempty"`
	ContactType    string `json:"contactType,omitempty"`
	OnlineResource string `json:"onlineResource,omitempty"`
	Email          string `json:"email,omitempty"`
	Active         *bool  `json:"active,omitempty"`
	JobTitle       string `json:"jobTitle,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	OrcID          string `json:"orcId,omitempty"`
}

type Tag struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Scheme string `json:"scheme,omitempty"`
}

// CatalogEntry is one cataloged model with its links and contacts.
type CatalogEntry struct {
	ID         string    `json:"id,omitempty"`
	ParentID   string    `json:"parentId,omitempty"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	CatalogURL string    `json:"catalogUrl,omitempty"`
	WebLinks   []WebLink `json:"webLinks"`
	Contacts   []Contact `json:"contacts,omitempty"`
	Tags       []Tag     `json:"tags,omitempty"`
}

// MinedFact is one discovered field of one link of one entry.
type MinedFact struct {
	ModelID     string `json:"model_id"`
	ModelURL    string `json:"model_url"`
	ModelTitle  string `json:"model_title"`
	LinkTitle   string `json:"link_title"`
	LinkURL     string `json:"link_url"`
	InfoType    string `json:"info_type"`
	InfoSource  string `json:"info_source"`
	InfoContent string `json:"info_content"`
}

// FactColumns is the column order used when writing facts as rows.
var FactColumns = []string{
	"model_id", "model_url", "model_title", "link_title", "link_url",
	"info_type", "info_source", "info_content",
}

// Row renders the fact in FactColumns order.
func (f MinedFact) Row() []string {
	return []string{
		f.ModelID, f.ModelURL, f.ModelTitle, f.LinkTitle, f.LinkURL,
		f.InfoType, f.InfoSource, f.InfoContent,
	}
}

// ModelRow is one row of the models spreadsheet.
type ModelRow struct {
	Name        string            `json:"Model Name"`
	Contacts    string            `json:"Contact(s)"`
	Link        string            `json:"Link"`
	OutputLinks []string          `json:"output_links"`
	Extra       map[string]string `json:"-"`
}
