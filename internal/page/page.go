// Package page extracts the asset references of an HTML document.
package page

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// Kind is the role a referenced asset plays in the document.
type Kind string

const (
	KindStylesheet Kind = "stylesheet"
	KindScript     Kind = "script"
	KindImage      Kind = "image"
	KindIcon       Kind = "icon"
	KindLink       Kind = "link"
)

// AssetRef is one href/src found in the document.
type AssetRef struct {
	Kind     Kind
	Ref      string
	External bool
}

// Document is a parsed HTML page.
type Document struct {
	Title string
	Refs  []AssetRef
}

// Parse reads an HTML document and collects the references a browser
// fetches while rendering it: <link href>, <script src> and <img src>.
// Navigation anchors are not assets and are skipped.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse document")
	}

	d := &Document{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	doc.Find("link[href], script[src], img[src]").Each(func(_ int, s *goquery.Selection) {
		var ref string
		var kind Kind
		switch goquery.NodeName(s) {
		case "link":
			ref, _ = s.Attr("href")
			kind = linkKind(s.AttrOr("rel", ""))
		case "script":
			ref, _ = s.Attr("src")
			kind = KindScript
		case "img":
			ref, _ = s.Attr("src")
			kind = KindImage
		}
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return
		}
		d.Refs = append(d.Refs, AssetRef{
			Kind:     kind,
			Ref:      ref,
			External: IsExternal(ref),
		})
	})

	return d, nil
}

// LocalRefs returns the references served by this site, in document order
// and without duplicates.
func (d *Document) LocalRefs() []AssetRef {
	seen := make(map[string]bool)
	var refs []AssetRef
	for _, r := range d.Refs {
		if r.External || seen[r.Ref] {
			continue
		}
		seen[r.Ref] = true
		refs = append(refs, r)
	}
	return refs
}

// ExternalRefs returns the references loaded from third-party hosts.
func (d *Document) ExternalRefs() []AssetRef {
	var refs []AssetRef
	for _, r := range d.Refs {
		if r.External {
			refs = append(refs, r)
		}
	}
	return refs
}

// IsExternal reports whether ref points at another host or is not a
// fetchable path at all.
func IsExternal(ref string) bool {
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "//") {
		return true
	}
	for _, scheme := range []string{"http:", "https:", "data:", "mailto:", "javascript:"} {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

func linkKind(rel string) Kind {
	for _, r := range strings.Fields(strings.ToLower(rel)) {
		switch r {
		case "stylesheet":
			return KindStylesheet
		case "icon", "shortcut", "apple-touch-icon":
			return KindIcon
		}
	}
	return KindLink
}
