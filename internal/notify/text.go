package notify

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText строит текстовую альтернативу HTML-письма.
func HTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(collapseSpaces(n.Data))
		case html.ElementNode:
			switch n.Data {
			case "style", "script", "head":
				return
			case "p", "div", "br", "h1", "h2", "h3", "ul":
				text.WriteString("\n")
			case "li":
				text.WriteString("\n- ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extract(child)
		}
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "p", "div", "h1", "h2", "h3", "ul":
			text.WriteString("\n")
		case "a":
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" {
					text.WriteString(" (" + attr.Val + ")")
				}
			}
		}
	}
	extract(doc)

	lines := strings.Split(text.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// collapseSpaces сжимает пробелы внутри строк, сохраняя переводы строк.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		fields := strings.Fields(line)
		collapsed := strings.Join(fields, " ")
		if len(fields) > 0 && strings.TrimLeft(line, " \t\r") != line {
			collapsed = " " + collapsed
		}
		if len(fields) > 0 && strings.TrimRight(line, " \t\r") != line {
			collapsed += " "
		}
		if len(fields) == 0 && line != "" {
			collapsed = " "
		}
		lines[i] = collapsed
	}
	return strings.Join(lines, "\n")
}
