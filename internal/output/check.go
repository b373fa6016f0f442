package output

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/conduit-lang/modelschema/internal/compiler/jsonschema"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// CheckReport lists what a check could not verify
type CheckReport struct {
	// Checked is the number of compiled documents
	Checked int
	// External are references to schemas outside the produced documents; they are not
	// fetched and every referenced location resolves to the empty schema
	External []string
}

// offlineLoader answers every URL that is not one of the produced documents with a stub
// that holds an empty schema at each referenced location
type offlineLoader struct {
	mu    sync.Mutex
	urls  map[string]bool
	stubs map[string]map[string]any
}

func newOfflineLoader() *offlineLoader {
	return &offlineLoader{urls: make(map[string]bool), stubs: make(map[string]map[string]any)}
}

func (l *offlineLoader) Load(url string) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.urls[url] = true
	if stub, ok := l.stubs[url]; ok {
		return stub, nil
	}
	return map[string]any{}, nil
}

// expect records that ref, a reference outside the produced documents, must resolve
func (l *offlineLoader) expect(ref string) {
	base, fragment, _ := strings.Cut(ref, "#")
	stub, ok := l.stubs[base]
	if !ok {
		stub = make(map[string]any)
		l.stubs[base] = stub
	}
	if fragment == "" {
		return
	}
	if !strings.HasPrefix(fragment, "/") {
		// plain name fragment: an anchored definition
		defs := child(stub, "$defs")
		child(defs, fragment)["$anchor"] = fragment
		return
	}
	node := stub
	for _, token := range strings.Split(fragment[1:], "/") {
		if unescaped, err := url.PathUnescape(token); err == nil {
			token = unescaped
		}
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		node = child(node, token)
	}
}

func child(m map[string]any, key string) map[string]any {
	if c, ok := m[key].(map[string]any); ok {
		return c
	}
	c := make(map[string]any)
	m[key] = c
	return c
}

// collectRefs calls fn with every $ref value in a parsed document
func collectRefs(v any, fn func(string)) {
	switch t := v.(type) {
	case map[string]any:
		for k, c := range t {
			if s, ok := c.(string); ok && k == "$ref" {
				fn(s)
				continue
			}
			collectRefs(c, fn)
		}
	case []any:
		for _, c := range t {
			collectRefs(c, fn)
		}
	}
}

// Check compiles every document as a JSON Schema so that broken references and invalid
// keyword values surface before the documents are published. OpenAPI documents are not
// JSON Schema dialects and are skipped.
func Check(docs []*jsonschema.Document, version jsonschema.SchemaVersion) (*CheckReport, error) {
	report := &CheckReport{}
	if version == jsonschema.VersionOpenAPI30 {
		return report, nil
	}

	loader := newOfflineLoader()
	compiler := sjsonschema.NewCompiler()
	compiler.UseLoader(loader)
	compiler.AssertFormat()

	ids := make(map[string]bool)
	for _, doc := range docs {
		ids[doc.ID] = true
	}

	var urls []string
	for _, doc := range docs {
		if doc.Root == nil {
			continue
		}
		data, err := schema.MarshalIndent(doc.Root)
		if err != nil {
			return report, fmt.Errorf("%s: %w", doc.FileName, err)
		}
		parsed, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return report, fmt.Errorf("%s: %w", doc.FileName, err)
		}
		collectRefs(parsed, func(ref string) {
			if base, _, _ := strings.Cut(ref, "#"); base != "" && !ids[base] {
				loader.expect(ref)
			}
		})
		if err := compiler.AddResource(doc.ID, parsed); err != nil {
			return report, fmt.Errorf("%s: %w", doc.FileName, err)
		}
		urls = append(urls, doc.ID)
		urls = append(urls, definitionURLs(doc)...)
		report.Checked++
	}

	for _, u := range urls {
		if _, err := compiler.Compile(u); err != nil {
			return report, fmt.Errorf("%s is not a valid schema: %w", u, err)
		}
	}

	for url := range loader.urls {
		report.External = append(report.External, url)
	}
	sort.Strings(report.External)
	return report, nil
}

// definitionURLs returns the absolute URL of every definition of doc; definitions that
// nothing references are compiled through these
func definitionURLs(doc *jsonschema.Document) []string {
	defs := doc.Root.Defs
	if defs.Len() == 0 {
		return nil
	}
	keyword := doc.Root.DefsKeyword
	if keyword == "" {
		keyword = "$defs"
	}
	var out []string
	for _, name := range defs.Keys() {
		token := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
		out = append(out, doc.ID+"#/"+url.PathEscape(keyword)+"/"+url.PathEscape(token))
	}
	return out
}
