package rod

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type TextConfig struct {
	TagsToSkip    []atom.Atom
	MaxOutputSize int
}

var DefaultTextConfig = TextConfig{
	TagsToSkip: []atom.Atom{
		atom.Script, atom.Style, atom.Noscript, atom.Svg, atom.Iframe,
		atom.Template, atom.Head, atom.Canvas,
	},
	MaxOutputSize: 60_000,
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Main: true, atom.Nav: true, atom.Aside: true, atom.Table: true, atom.Ul: true, atom.Ol: true,
	atom.Blockquote: true, atom.Dd: true, atom.Dt: true, atom.Form: true, atom.Button: true,
}

var (
	emailRe      = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spacesRe     = regexp.MustCompile(`[ \t\r\f\v]+`)
)

// PageText turns raw HTML into readable text with one block per line.
// Parse failures fall back to the raw input.
func PageText(rawHTML string, cfg *TextConfig) string {
	if cfg == nil {
		cfg = &DefaultTextConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return truncate(rawHTML, cfg.MaxOutputSize)
	}

	skip := make(map[atom.Atom]bool, len(cfg.TagsToSkip))
	for _, a := range cfg.TagsToSkip {
		skip[a] = true
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode:
			return
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if skip[n.DataAtom] {
				return
			}
			if blockTags[n.DataAtom] {
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.DataAtom] {
			sb.WriteString("\n")
		}
	}
	walk(doc)

	return truncate(collapse(sb.String()), cfg.MaxOutputSize)
}

// PageEmails collects addresses from mailto: links and from visible text,
// lower-cased, deduplicated and sorted.
func PageEmails(rawHTML string) []string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.ToLower(strings.Trim(strings.TrimSpace(s), "."))
		if s != "" && emailRe.MatchString(s) {
			seen[s] = true
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !strings.HasPrefix(strings.ToLower(attr.Val), "mailto:") {
					continue
				}
				addr := attr.Val[len("mailto:"):]
				if i := strings.IndexByte(addr, '?'); i >= 0 {
					addr = addr[:i]
				}
				for _, part := range strings.Split(addr, ",") {
					add(part)
				}
			}
		}
		if n.Type == html.TextNode {
			for _, m := range emailRe.FindAllString(n.Data, -1) {
				add(m)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	emails := make([]string, 0, len(seen))
	for e := range seen {
		emails = append(emails, e)
	}
	sort.Strings(emails)
	return emails
}

func collapse(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spacesRe.ReplaceAllString(l, " "))
	}
	out := strings.Join(lines, "\n")
	out = blankLinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func truncate(s string, maxSize int) string {
	if maxSize > 0 && len(s) > maxSize {
		return s[:maxSize] + "\n... (page text truncated)"
	}
	return s
}
