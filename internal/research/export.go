// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-mcp/pkg/types"
)

// Format names an export rendition of a paper.
type Format string

const (
	FormatJSON   Format = "json"
	FormatBibTeX Format = "bibtex"
	FormatPlain  Format = "plain"
	FormatCSL    Format = "csl"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatJSON, FormatBibTeX, FormatPlain, FormatCSL}

// ParseFormat accepts a format name in any case. An empty name selects JSON.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return FormatJSON, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported export format %q (want json, bibtex, plain, or csl)", ErrInvalidArgument, name)
}

func render(p types.Paper, f Format, indent int) (string, error) {
	switch f {
	case FormatJSON:
		return renderJSON(p, indent)
	case FormatBibTeX:
		return renderBibTeX(p), nil
	case FormatPlain:
		return renderPlain(p), nil
	case FormatCSL:
		return renderCSL(p)
	}
	return "", fmt.Errorf("unknown format %q", f)
}

func renderJSON(p types.Paper, indent int) (string, error) {
	var (
		data []byte
		err  error
	)
	if indent > 0 {
		data, err = json.MarshalIndent(p, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(p)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// renderBibTeX writes an @article entry keyed by the paper identifier.
func renderBibTeX(p types.Paper) string {
	link := p.PDFURL
	if link == "" {
		link = p.URL
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@article{%s,\n", p.ID)
	fmt.Fprintf(&b, "  title={%s},\n", p.Title)
	fmt.Fprintf(&b, "  author={%s},\n", strings.Join(p.Authors, " and "))
	if !p.Published.IsZero() {
		fmt.Fprintf(&b, "  year={%d},\n", p.Published.Year())
	}
	fmt.Fprintf(&b, "  journal={arXiv preprint arXiv:%s},\n", p.ID)
	if p.DOI != "" {
		fmt.Fprintf(&b, "  doi={%s},\n", p.DOI)
	}
	fmt.Fprintf(&b, "  url={%s}\n", link)
	b.WriteString("}")
	return b.String()
}

func renderPlain(p types.Paper) string {
	category := p.Category
	if category == "" {
		category = "N/A"
	}
	pdf := p.PDFURL
	if pdf == "" {
		pdf = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Authors: %s\n", strings.Join(p.Authors, ", "))
	fmt.Fprintf(&b, "Published: %s\n", p.Published.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "ArXiv ID: %s\n", p.ID)
	fmt.Fprintf(&b, "Category: %s\n", category)
	fmt.Fprintf(&b, "PDF URL: %s\n", pdf)
	b.WriteString("\nAbstract:\n")
	b.WriteString(p.Summary)
	return b.String()
}

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names follow the CSL-YAML schema so that output is
// consumable by Pandoc and reference managers.
type CSLItem struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type"`
	Title    string    `yaml:"title"`
	Author   []CSLName `yaml:"author,omitempty"`
	Abstract string    `yaml:"abstract,omitempty"`
	Issued   *CSLDate  `yaml:"issued,omitempty"`
	DOI      string    `yaml:"DOI,omitempty"`
	URL      string    `yaml:"URL,omitempty"`
	Number   string    `yaml:"number,omitempty"`
	Genre    string    `yaml:"genre,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// renderCSL writes the paper as a one-element CSL-YAML list.
func renderCSL(p types.Paper) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode([]CSLItem{toCSLItem(p)}); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toCSLItem(p types.Paper) CSLItem {
	item := CSLItem{
		ID:       p.ID,
		Type:     "article",
		Title:    p.Title,
		Abstract: p.Summary,
		DOI:      p.DOI,
		URL:      p.URL,
		Number:   "arXiv:" + p.ID,
		Genre:    "preprint",
	}
	for _, a := range p.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}
	if !p.Published.IsZero() {
		d := p.Published.UTC()
		item.Issued = &CSLDate{
			DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}},
		}
	}
	return item
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
