package notion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	propertyTypeTitle     = "title"
	propertyNameTitle     = "title"
	propertyNameName      = "Name"
	iconTypeEmoji         = "emoji"
	iconTypeExternal      = "external"
	iconTypeFile          = "file"
	pageIDLength          = 32
	urlQuerySeparators    = "?#"
	pageIDGroupSeparator  = "-"
	errorInvalidPageIDFmt = "%w: %q"
)

var trailingPageIDPattern = regexp.MustCompile(`[0-9a-fA-F]{32}$`)

// RichText is a single formatted run of text. Only the plain rendition is retained.
type RichText struct {
	PlainText string `json:"plain_text"`
}

// PlainText concatenates the plain text of every run in order.
func PlainText(runs []RichText) string {
	var builder strings.Builder
	for _, run := range runs {
		builder.WriteString(run.PlainText)
	}
	return builder.String()
}

// Property is one named page property. Title carries the rich text of title-typed properties.
type Property struct {
	Name  string     `json:"name"`
	ID    string     `json:"id,omitempty"`
	Type  string     `json:"type"`
	Title []RichText `json:"title,omitempty"`
}

// Page is the metadata record of a Notion page.
type Page struct {
	ID             string     `json:"id"`
	URL            string     `json:"url,omitempty"`
	LastEditedTime string     `json:"last_edited_time,omitempty"`
	Icon           string     `json:"icon,omitempty"`
	Properties     []Property `json:"properties,omitempty"`
}

// Property returns the property with the given name.
func (page Page) Property(name string) (Property, bool) {
	for _, property := range page.Properties {
		if property.Name == name {
			return property, true
		}
	}
	return Property{}, false
}

// Title resolves the page title from the "title" property, then "Name", then the first
// non-empty title-typed property. It returns an empty string when none qualifies.
func (page Page) Title() string {
	for _, propertyName := range []string{propertyNameTitle, propertyNameName} {
		property, found := page.Property(propertyName)
		if found && property.Title != nil {
			return PlainText(property.Title)
		}
	}
	for _, property := range page.Properties {
		if property.Type == propertyTypeTitle && len(property.Title) > 0 {
			return PlainText(property.Title)
		}
	}
	return ""
}

// PageSummary is the listing view of a page returned by search.
type PageSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Icon       string `json:"icon,omitempty"`
	LastEdited string `json:"lastEdited,omitempty"`
	URL        string `json:"url,omitempty"`
}

type rawPage struct {
	Object         string          `json:"object"`
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	LastEditedTime string          `json:"last_edited_time"`
	Icon           *rawIcon        `json:"icon"`
	Properties     json.RawMessage `json:"properties"`
}

type rawIcon struct {
	Type     string   `json:"type"`
	Emoji    string   `json:"emoji"`
	External *fileRef `json:"external"`
	File     *fileRef `json:"file"`
}

type fileRef struct {
	URL string `json:"url"`
}

type rawProperty struct {
	ID    string     `json:"id"`
	Type  string     `json:"type"`
	Title []RichText `json:"title"`
}

func (raw rawPage) toPage() Page {
	return Page{
		ID:             raw.ID,
		URL:            raw.URL,
		LastEditedTime: raw.LastEditedTime,
		Icon:           raw.Icon.value(),
		Properties:     decodeProperties(raw.Properties),
	}
}

func (icon *rawIcon) value() string {
	if icon == nil {
		return ""
	}
	switch icon.Type {
	case iconTypeEmoji:
		return icon.Emoji
	case iconTypeExternal:
		if icon.External != nil {
			return icon.External.URL
		}
	case iconTypeFile:
		if icon.File != nil {
			return icon.File.URL
		}
	}
	return ""
}

// decodeProperties walks the properties object token by token so that the key order of the
// response is preserved. Properties that fail to decode are skipped.
func decodeProperties(data json.RawMessage) []Property {
	if len(data) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	openingToken, tokenErr := decoder.Token()
	if tokenErr != nil {
		return nil
	}
	if delimiter, isDelimiter := openingToken.(json.Delim); !isDelimiter || delimiter != '{' {
		return nil
	}
	var properties []Property
	for decoder.More() {
		keyToken, keyErr := decoder.Token()
		if keyErr != nil {
			return properties
		}
		propertyName, isString := keyToken.(string)
		if !isString {
			return properties
		}
		var rawValue json.RawMessage
		if decodeErr := decoder.Decode(&rawValue); decodeErr != nil {
			return properties
		}
		var payload rawProperty
		if unmarshalErr := json.Unmarshal(rawValue, &payload); unmarshalErr != nil {
			continue
		}
		properties = append(properties, Property{Name: propertyName, ID: payload.ID, Type: payload.Type, Title: payload.Title})
	}
	return properties
}

// ParsePageID accepts a page ID with or without dashes, or a page URL, and returns the dashed form.
func ParsePageID(input string) (string, error) {
	candidate := strings.TrimSpace(input)
	if separatorIndex := strings.IndexAny(candidate, urlQuerySeparators); separatorIndex >= 0 {
		candidate = candidate[:separatorIndex]
	}
	candidate = strings.TrimRight(candidate, "/")
	if slashIndex := strings.LastIndex(candidate, "/"); slashIndex >= 0 {
		candidate = candidate[slashIndex+1:]
	}
	compact := strings.ReplaceAll(candidate, pageIDGroupSeparator, "")
	match := trailingPageIDPattern.FindString(compact)
	if len(match) != pageIDLength {
		return "", fmt.Errorf(errorInvalidPageIDFmt, ErrInvalidPageID, input)
	}
	lowered := strings.ToLower(match)
	return strings.Join([]string{lowered[0:8], lowered[8:12], lowered[12:16], lowered[16:20], lowered[20:32]}, pageIDGroupSeparator), nil
}
