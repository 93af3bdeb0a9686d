/*
 * Copyright 2025 SchemaVault Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package spec parses and structurally validates uploaded OpenAPI and
// Swagger documents. Parsing and validation are pure functions over the
// input bytes; nothing here touches storage.
package spec

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/schemavault/schemavault/internal/errors"
)

// Document is a parsed schema document. The root is either a mapping
// (the only shape that validates) or whatever scalar/sequence the
// caller uploaded; Validate rejects non-mappings.
type Document struct {
	root interface{}
}

// Root returns the decoded document root.
func (d Document) Root() interface{} {
	return d.root
}

// Mapping returns the document root as a mapping, or false when the
// top level is not an object.
func (d Document) Mapping() (map[string]interface{}, bool) {
	m, ok := d.root.(map[string]interface{})
	return m, ok
}

// Parse decodes raw uploaded bytes into a Document. The bytes must be
// UTF-8 text containing either a JSON document or a YAML document with
// an object at the top level.
func Parse(raw []byte) (Document, error) {
	if !utf8.Valid(raw) {
		return Document{}, errors.New(errors.ErrNotUTF8,
			"file must be UTF-8 text (json/yaml)")
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err == nil {
		return Document{root: v}, nil
	}

	if err := yaml.Unmarshal(raw, &v); err != nil {
		return Document{}, errors.New(errors.ErrNotJSONOrYAML,
			"uploaded file is neither valid JSON nor YAML")
	}
	v = normalize(v)
	if _, ok := v.(map[string]interface{}); !ok {
		return Document{}, errors.New(errors.ErrNotJSONOrYAML,
			"parsed YAML content is not an object at top level")
	}

	return Document{root: v}, nil
}

// normalize rewrites a decoded YAML tree so every mapping key is a
// string. YAML allows integer and boolean keys (response status codes
// like "200:" are the common case) and yaml.v3 decodes such mappings as
// map[interface{}]interface{}, which JSON serialization rejects.
// Non-string keys are stringified, so the stored document carries
// "200" where the upload carried 200.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			out[key] = normalize(item)
		}
		return out
	case []interface{}:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}

// Validate checks that the document is shaped like an OpenAPI/Swagger
// schema: an object at the top level carrying an "openapi" or "swagger"
// key and a "paths" object. This is a structural sanity check, not a
// full specification conformance validator.
func Validate(doc Document) error {
	root, ok := doc.Mapping()
	if !ok {
		return errors.New(errors.ErrValidationFailed,
			"schema root must be an object")
	}

	_, hasOpenAPI := root["openapi"]
	_, hasSwagger := root["swagger"]
	if !hasOpenAPI && !hasSwagger {
		return errors.New(errors.ErrValidationFailed,
			"schema missing 'openapi' or 'swagger' field")
	}

	paths, hasPaths := root["paths"]
	if !hasPaths {
		return errors.New(errors.ErrValidationFailed,
			"schema must contain 'paths' object")
	}
	if _, ok := paths.(map[string]interface{}); !ok {
		return errors.New(errors.ErrValidationFailed,
			"schema 'paths' value must be an object")
	}

	return nil
}

// Canonicalize serializes a validated document into the canonical
// stored encoding: pretty-printed JSON with sorted keys. The same
// document always canonicalizes to the same bytes.
func Canonicalize(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc.root, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternalError,
			"failed to serialize document", err)
	}
	return data, nil
}

// Info summarizes a validated document for metadata storage.
type Info struct {
	Flavor      string `json:"flavor"` // "openapi" or "swagger"
	SpecVersion string `json:"spec_version,omitempty"`
	Title       string `json:"title,omitempty"`
	PathCount   int    `json:"path_count"`
}

// Summarize extracts the document info blob recorded alongside each
// stored version. Returns nil for documents that do not validate.
func Summarize(doc Document) json.RawMessage {
	root, ok := doc.Mapping()
	if !ok {
		return nil
	}

	info := Info{}
	if v, ok := root["openapi"].(string); ok {
		info.Flavor = "openapi"
		info.SpecVersion = v
	} else if v, ok := root["swagger"].(string); ok {
		info.Flavor = "swagger"
		info.SpecVersion = v
	} else if _, ok := root["openapi"]; ok {
		info.Flavor = "openapi"
	} else if _, ok := root["swagger"]; ok {
		info.Flavor = "swagger"
	}

	if meta, ok := root["info"].(map[string]interface{}); ok {
		if title, ok := meta["title"].(string); ok {
			info.Title = title
		}
	}
	if paths, ok := root["paths"].(map[string]interface{}); ok {
		info.PathCount = len(paths)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return nil
	}
	return data
}
