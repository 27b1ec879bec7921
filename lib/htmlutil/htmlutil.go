package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText is GetText with presentation junk stripped: runs of
// whitespace collapsed into a single space, non-printable runes
// removed, surrounding whitespace trimmed. whitespace must be
// collapsed before the non-printable filter runs, otherwise text
// separated only by newlines/tabs gets glued together.
func CleanText(node *html.Node) string {
	text := GetText(node)
	text = whitespaceRuns.ReplaceAllString(text, " ")
	text = removeNonPrintable(text)
	return strings.Trim(text, " ")
}

// Attr returns the value of the named attribute on the node itself,
// or "" when it is missing.
func Attr(node *html.Node, key string) string {
	if node == nil {
		return ""
	}
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
