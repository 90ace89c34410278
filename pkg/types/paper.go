// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

// ErrInvalidID is returned by ValidateID for identifiers that do not follow
// arXiv identifier syntax.
var ErrInvalidID = errors.New("invalid paper identifier")

var (
	// newStyleID matches post-2007 identifiers such as 2301.07041 or 2301.07041v2.
	newStyleID = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

	// oldStyleID matches pre-2007 identifiers such as hep-th/9901001 or math.GT/0309136v1.
	oldStyleID = regexp.MustCompile(`^[a-z]+(-[a-z]+)*(\.[A-Z]{2})?/\d{7}(v\d+)?$`)

	versionSuffix = regexp.MustCompile(`v\d+$`)
)

// ValidateID reports whether id is a syntactically valid arXiv identifier.
// Surrounding whitespace is ignored.
func ValidateID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if !newStyleID.MatchString(id) && !oldStyleID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// CanonicalID trims id and strips its version suffix, so "2301.07041v2"
// and "2301.07041" address the same record.
func CanonicalID(id string) string {
	id = strings.TrimSpace(id)
	return versionSuffix.ReplaceAllString(id, "")
}

// Paper holds the metadata of one paper as returned by the remote index.
// ID is the primary key and never changes; every other field is replaced
// wholesale when a fresher copy of the same paper is stored.
type Paper struct {
	// ID is the arXiv identifier without version suffix (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Summary is the paper abstract.
	Summary string `json:"summary" yaml:"summary"`

	// Published is the first-version submission time.
	Published time.Time `json:"published" yaml:"published"`

	// URL is the canonical abstract page.
	URL string `json:"url" yaml:"url"`

	// PDFURL links to the PDF rendition.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Category is the primary arXiv category (e.g. "cs.LG").
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Updated is the time of the latest version, if any.
	Updated *time.Time `json:"updated,omitempty" yaml:"updated,omitempty"`

	// DOI is the journal DOI when the authors supplied one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`
}

// Validate checks the invariants a record must satisfy before it is stored.
func (p Paper) Validate() error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	if p.ID != CanonicalID(p.ID) {
		return fmt.Errorf("%w: %q carries a version suffix", ErrInvalidID, p.ID)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("paper %s: empty title", p.ID)
	}
	return nil
}

// Equal reports whether p and o carry identical metadata.
func (p Paper) Equal(o Paper) bool {
	if p.ID != o.ID || p.Title != o.Title || p.Summary != o.Summary ||
		p.URL != o.URL || p.PDFURL != o.PDFURL || p.Category != o.Category ||
		p.DOI != o.DOI || !p.Published.Equal(o.Published) {
		return false
	}
	if (p.Updated == nil) != (o.Updated == nil) {
		return false
	}
	if p.Updated != nil && !p.Updated.Equal(*o.Updated) {
		return false
	}
	return slices.Equal(p.Authors, o.Authors)
}
