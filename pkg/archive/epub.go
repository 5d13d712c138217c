package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

var (
	tagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptPattern = regexp.MustCompile(`(?s)<(script|style)[^>]*>.*?</(script|style)>`)
	spacePattern  = regexp.MustCompile(`[ \t]+`)
	newlineRuns   = regexp.MustCompile(`\n{3,}`)
)

// ExtractEPUB pulls readable text out of an EPUB container. EPUB is a zip of
// XHTML content documents; chapters are concatenated in file-name order,
// which follows spine order for every mainstream packaging tool.
func ExtractEPUB(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("epub: open container: %w", err)
	}

	var content []*zip.File
	for _, f := range r.File {
		name := strings.ToLower(f.Name)
		if strings.HasSuffix(name, ".xhtml") || strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".htm") {
			content = append(content, f)
		}
	}
	sort.Slice(content, func(i, j int) bool { return content[i].Name < content[j].Name })

	var sb strings.Builder
	for _, f := range content {
		rc, err := f.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		sb.WriteString(stripMarkup(string(raw)))
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

// stripMarkup reduces an XHTML chapter to plain text.
func stripMarkup(html string) string {
	text := scriptPattern.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "</p>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br>", "\n")
	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = spacePattern.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
