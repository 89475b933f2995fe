// Package main scrapes data-star.dev documentation and saves it as
// markdown files for offline reference while working on the web UI.
//
// The docs page is a single <article> tag; sections are delineated by
// <h1> headings whose IDs match the sidebar nav.
//
// Usage:
//
//	go run ./scripts/syncdatastardocs [-url URL] [-out DIR]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

var (
	urlFlag = flag.String("url", "https://data-star.dev/docs", "docs page to scrape")
	outFlag = flag.String("out", "context/datastar-docs", "output directory")
)

// Reference-style sections where each H3 is an independent API item and
// gets its own file.
var splitByH3 = map[string]bool{
	"attributes": true,
	"actions":    true,
}

var (
	reNonWord           = regexp.MustCompile(`[^\w\s-]`)
	reSpacesUnderscores = regexp.MustCompile(`[\s_]+`)
	reMultipleHyphens   = regexp.MustCompile(`-+`)
	reAnchorLinks       = regexp.MustCompile(`\s*\[#\]\(#[\w-]*\)`)
	reLineNumbers       = regexp.MustCompile(`^(\s*)\d{1,4}(.*)$`)
	reExcessiveNewlines = regexp.MustCompile(`\n{4,}`)
	reH3Header          = regexp.MustCompile(`(?m)(^### .+$)`)
	reH3Prefix          = regexp.MustCompile(`^### `)
	reProLink           = regexp.MustCompile(`\[Pro\]\([^)]*\)`)
	reSlugCleanup       = regexp.MustCompile("[`()\\[\\]]")
)

// section is the markdown content of one H1 section.
type section struct {
	Title   string
	ID      string
	Content string
}

func main() {
	flag.Parse()

	log.Printf("Scraping Datastar documentation from %s", *urlFlag)

	if err := resetDir(*outFlag); err != nil {
		log.Fatalf("Failed to prepare output directory: %v", err)
	}

	page, err := fetchPage(*urlFlag)
	if err != nil {
		log.Fatalf("Failed to fetch page: %v", err)
	}

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		log.Fatalf("Failed to parse HTML: %v", err)
	}

	sections := extractSections(doc)
	log.Printf("Found %d sections", len(sections))

	saved := 0
	for _, sec := range sections {
		saved += saveSection(sec, saved)
	}

	log.Printf("Scraped %d files to %s", saved, *outFlag)
}

// saveSection writes a section to disk, splitting reference sections by
// H3 headers. Returns the number of files written.
func saveSection(sec section, ordinal int) int {
	content := cleanMarkdown(sec.Content)
	if len(content) < 50 {
		log.Printf("  Skipping empty section: %s", sec.Title)
		return 0
	}

	name := slugify(sec.ID)
	if name == "" {
		name = slugify(sec.Title)
	}
	if name == "" {
		name = fmt.Sprintf("section-%d", ordinal)
	}

	if splitByH3[name] {
		if n := saveSubsections(sec, name, content); n > 0 {
			return n
		}
	}

	if !strings.HasPrefix(content, "#") {
		content = fmt.Sprintf("# %s\n\n%s", sec.Title, content)
	}

	path := filepath.Join(*outFlag, name+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		log.Printf("  Failed to save %s: %v", path, err)
		return 0
	}
	log.Printf("  Saved: %s.md", name)
	return 1
}

// saveSubsections writes each H3 block of a section as its own file
// under a directory named after the section. Content before the first
// H3 becomes index.md.
func saveSubsections(sec section, name, content string) int {
	parts := reH3Header.Split(content, -1)
	headers := reH3Header.FindAllString(content, -1)
	if len(headers) < 2 {
		return 0
	}

	dir := filepath.Join(*outFlag, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("  Failed to create directory %s: %v", dir, err)
		return 0
	}

	saved := 0
	write := func(slug, body string) {
		path := filepath.Join(dir, slug+".md")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			log.Printf("    Failed to save %s: %v", path, err)
			return
		}
		log.Printf("    Saved: %s/%s.md", name, slug)
		saved++
	}

	if intro := strings.TrimSpace(parts[0]); intro != "" {
		if !strings.HasPrefix(intro, "#") {
			intro = fmt.Sprintf("# %s\n\n%s", sec.Title, intro)
		}
		write("index", intro)
	}

	for i, header := range headers {
		title := strings.TrimSpace(strings.TrimPrefix(header, "###"))

		var body string
		if i+1 < len(parts) {
			body = strings.TrimSpace(parts[i+1])
		}
		full := strings.TrimSpace(header + "\n\n" + body)
		// Promote the H3 to H1 for the standalone file.
		full = reH3Prefix.ReplaceAllString(full, "# ")

		slugText := reProLink.ReplaceAllString(title, "")
		slugText = reSlugCleanup.ReplaceAllString(slugText, "")
		write(slugify(slugText), full)
	}

	return saved
}

// resetDir removes an existing output directory and recreates it.
func resetDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		log.Printf("Cleaning existing directory: %s", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove existing directory: %w", err)
		}
	}
	return os.MkdirAll(dir, 0o755)
}

// fetchPage fetches HTML content from a URL.
func fetchPage(pageURL string) (string, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; QueryChatDocsSync/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// slugify converts text to a safe filename slug.
func slugify(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = reNonWord.ReplaceAllString(text, "")
	text = reSpacesUnderscores.ReplaceAllString(text, "-")
	text = reMultipleHyphens.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}

// extractSections splits the page's <article> into sections at <h1>
// headings with IDs and converts each to markdown.
func extractSections(doc *html.Node) []section {
	var sections []section

	article := findElement(doc, "article")
	if article == nil {
		log.Println("Warning: no article tag found")
		return sections
	}

	var h1s []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "h1" && getAttr(n, "id") != "" {
			h1s = append(h1s, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(article)

	if len(h1s) == 0 {
		log.Println("Warning: no h1 headings with IDs found")
		return sections
	}

	for i, h1 := range h1s {
		id := getAttr(h1, "id")
		title := strings.TrimRight(getTextContent(h1), "#")

		var next *html.Node
		if i+1 < len(h1s) {
			next = h1s[i+1]
		}

		var sb strings.Builder
		sb.WriteString(renderNode(h1))
		for sibling := h1.NextSibling; sibling != nil; sibling = sibling.NextSibling {
			if sibling == next || (sibling.Type == html.ElementNode && sibling.Data == "h1") {
				break
			}
			sb.WriteString(renderNode(sibling))
		}

		md, err := htmltomarkdown.ConvertString(sb.String())
		if err != nil {
			log.Printf("Warning: failed to convert section %s to markdown: %v", id, err)
			continue
		}

		sections = append(sections, section{
			Title:   strings.TrimSpace(title),
			ID:      id,
			Content: md,
		})
	}

	return sections
}

// cleanMarkdown strips scraping artifacts: heading anchor links, code
// block line numbers, runs of blank lines, trailing whitespace.
func cleanMarkdown(content string) string {
	content = reAnchorLinks.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	inCodeBlock := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			inCodeBlock = !inCodeBlock
			cleaned = append(cleaned, line)
		case inCodeBlock:
			if match := reLineNumbers.FindStringSubmatch(line); match != nil {
				cleaned = append(cleaned, match[1]+match[2])
			} else {
				cleaned = append(cleaned, line)
			}
		default:
			cleaned = append(cleaned, strings.TrimRight(line, " \t"))
		}
	}

	content = strings.Join(cleaned, "\n")
	content = reExcessiveNewlines.ReplaceAllString(content, "\n\n\n")
	return strings.TrimSpace(content)
}

// findElement finds the first element with the given tag name.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// getAttr returns the value of an attribute, or empty string if not found.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// getTextContent returns the text content of a node and its children.
func getTextContent(n *html.Node) string {
	var sb strings.Builder
	var getText func(*html.Node)
	getText = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			getText(c)
		}
	}
	getText(n)
	return strings.TrimSpace(sb.String())
}

// renderNode renders an HTML node back to string.
func renderNode(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}
