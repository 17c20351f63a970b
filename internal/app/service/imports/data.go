package imports

import (
	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"

	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/domain/value"
	"github.com/gomdlint/mdcompose/internal/shared/utils"
)

// decodeConfig flattens a TOML configuration file into metadata.
func decodeConfig(path string, data []byte) (value.Metadata, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, value.WrapError(value.ImportTypeMismatch, path, err, "invalid TOML configuration")
	}
	return utils.FlattenConfig(raw), nil
}

// decodeBibliography reads a TOML file whose top-level tables are
// bibliography entries:
//
//	[book]
//	author = "Donovan"
//	title = "The Go Programming Language"
//
// Entries keep their file order.
func decodeBibliography(path string, data []byte) ([]entity.BibliographyEntry, error) {
	var raw map[string]interface{}
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, value.WrapError(value.ImportTypeMismatch, path, err, "invalid TOML bibliography")
	}

	var entries []entity.BibliographyEntry
	var errs error
	for _, key := range topLevelKeys(md) {
		fields, ok := raw[key].(map[string]interface{})
		if !ok {
			errs = multierr.Append(errs, value.NewError(value.ImportTypeMismatch, path, value.Position{},
				"bibliography entry %q is not a table", key))
			continue
		}
		entries = append(entries, entity.BibliographyEntry{Key: key, Fields: utils.FlattenConfig(fields)})
	}
	return entries, errs
}

// decodeGlossary reads a TOML file of glossary entries:
//
//	[HTML]
//	long = "Hypertext Markup Language"
//	description = "The markup language of the web"
//
// Entries without a long form are skipped and reported.
func decodeGlossary(path string, data []byte) ([]entity.GlossaryEntry, error) {
	var raw map[string]map[string]interface{}
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, value.WrapError(value.ImportTypeMismatch, path, err, "invalid TOML glossary")
	}

	var entries []entity.GlossaryEntry
	var errs error
	for _, key := range topLevelKeys(md) {
		fields := raw[key]
		long, _ := fields["long"].(string)
		if long == "" {
			errs = multierr.Append(errs, value.NewError(value.ImportTypeMismatch, path, value.Position{},
				"glossary entry %q: missing field 'long'", key))
			continue
		}
		description, _ := fields["description"].(string)
		entries = append(entries, entity.GlossaryEntry{Key: key, Long: long, Description: description})
	}
	return entries, errs
}

// topLevelKeys returns the top-level keys of a decoded TOML file in file order.
func topLevelKeys(md toml.MetaData) []string {
	var keys []string
	for _, key := range md.Keys() {
		if len(key) == 1 {
			keys = append(keys, key[0])
		}
	}
	return keys
}
