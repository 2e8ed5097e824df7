package filing

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultRemovedElements are the EDGAR envelope elements dropped before
// the body is extracted.
var DefaultRemovedElements = []string{"sec-document", "sec-header"}

// BodyElement holds the human-readable part of a submission.
const BodyElement = "text"

// Cleaner strips envelope elements from a submission and extracts its body.
type Cleaner struct {
	selector string
}

// NewCleaner returns a Cleaner removing the given elements. An empty list
// uses DefaultRemovedElements.
func NewCleaner(remove ...string) *Cleaner {
	if len(remove) == 0 {
		remove = DefaultRemovedElements
	}

	names := make([]string, 0, len(remove))
	for _, name := range remove {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			names = append(names, name)
		}
	}

	return &Cleaner{selector: strings.Join(names, ", ")}
}

// Clean returns the text of the first body element, every text node joined
// by a newline. Without a body element, or when parsing fails, raw is
// returned unchanged.
func (c *Cleaner) Clean(raw []byte) []byte {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return raw
	}

	if c.selector != "" {
		doc.Find(c.selector).Remove()
	}

	body := doc.Find(BodyElement).First()
	if body.Length() == 0 {
		return raw
	}

	var parts []string

	for _, node := range body.Nodes {
		collectText(node, &parts)
	}

	return []byte(strings.Join(parts, "\n"))
}

// CleanFile cleans path in place.
func (c *Cleaner) CleanFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	writeErr := os.WriteFile(path, c.Clean(raw), info.Mode().Perm())
	if writeErr != nil {
		return fmt.Errorf("write %s: %w", path, writeErr)
	}

	return nil
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		*parts = append(*parts, n.Data)

		return
	}

	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}
