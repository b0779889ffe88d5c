// Package directory looks people up in the ScienceBase person directory and
// maps them to catalog contacts.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"modelcat/internal/models"
	"modelcat/pkg/logger"
)

const onlineResourcePrefix = "https://my.usgs.gov/catalog/Global/catalogParty/show/"

type Person struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	Email       string `json:"email"`
	Active      bool   `json:"active"`
	OrcID       string `json:"orcId,omitempty"`
	Extensions  struct {
		PersonExtension struct {
			JobTitle  string `json:"jobTitle"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"personExtension"`
	} `json:"extensions"`
}

type searchResult struct {
	Total  int      `json:"total"`
	People []Person `json:"people"`
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func NewClient(baseURL string, h *http.Client, l *logger.Logger) *Client {
	if h == nil {
		h = &http.Client{Timeout: 30 * time.Second}
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: h, log: l}
}

// Search returns up to 10 people matching term and the total match count.
func (c *Client) Search(ctx context.Context, term string) ([]Person, int, error) {
	q := url.Values{
		"q":       {term},
		"format":  {"json"},
		"dataset": {"all"},
		"max":     {"10"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/people?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("directory search %q: %w", term, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("directory search %q: status %d", term, resp.StatusCode)
	}
	var res searchResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, 0, fmt.Errorf("directory search %q: decode: %w", term, err)
	}
	return res.People, res.Total, nil
}

// PartyToContact maps a unique directory match for term into a full contact.
// No match, several matches, or a failed lookup give a minimal contact named
// after the term.
func (c *Client) PartyToContact(ctx context.Context, term string) models.Contact {
	people, total, err := c.Search(ctx, term)
	if err != nil {
		c.log.Warnf("contact lookup for %q failed: %v", term, err)
	}
	if err != nil || total != 1 || len(people) != 1 {
		return FallbackContact(term)
	}
	return ContactFromPerson(people[0])
}

func FallbackContact(term string) models.Contact {
	return models.Contact{Name: term, Type: "Contact", Email: term}
}

func ContactFromPerson(p Person) models.Contact {
	active := p.Active
	ext := p.Extensions.PersonExtension
	return models.Contact{
		Name:           p.DisplayName,
		Type:           "Contact",
		OldPartyID:     p.ID,
		ContactType:    p.Type,
		OnlineResource: fmt.Sprintf("%s%d", onlineResourcePrefix, p.ID),
		Email:          p.Email,
		Active:         &active,
		JobTitle:       ext.JobTitle,
		FirstName:      ext.FirstName,
		LastName:       ext.LastName,
		OrcID:          p.OrcID,
	}
}
