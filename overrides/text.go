package overrides

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/xmloverrides/xmloverrides/xoerrors"
)

// ApplyText applies one textFile block to lines and returns the new buffer. The
// block's placeholders are not expanded; use Interpreter.ApplyTextFile to apply a
// whole override document with its properties.
func ApplyText(block *etree.Element, lines []string) ([]string, TextResult, error) {
	r := &run{in: &Interpreter{}, log: NopLogger{}, props: properties{values: map[string]string{}}, result: &ApplyResult{}}
	out, err := r.applyTextBlock(block, lines)
	return out, r.textResult(), err
}

// ApplyTextFile applies every textFile block of overrideDoc that matches
// resourceName to lines. Lines that no directive targets are kept verbatim and in
// order.
func (in *Interpreter) ApplyTextFile(overrideDoc *etree.Element, resourceName string, lines []string) ([]string, TextResult, error) {
	r := &run{in: in, log: loggerOrNop(in.Logger), result: &ApplyResult{Resource: resourceName}}
	if overrideDoc == nil {
		return nil, TextResult{}, fmt.Errorf("overrides: override document is nil")
	}
	if errs := Validate(overrideDoc); len(errs) > 0 {
		return nil, TextResult{}, errs[0]
	}
	r.props = collectProperties(overrideDoc)

	out := lines
	for _, block := range overrideDoc.SelectElements(SectionTextFile) {
		if !MatchesResource(block.SelectAttrValue("name", ""), resourceName) {
			continue
		}
		var err error
		if out, err = r.applyTextBlock(block, out); err != nil {
			return nil, r.textResult(), err
		}
	}
	return out, r.textResult(), nil
}

func (r *run) textResult() TextResult {
	return TextResult{
		DirectivesApplied: r.result.DirectivesApplied,
		DirectivesSkipped: r.result.DirectivesSkipped,
		Warnings:          r.result.Warnings,
	}
}

// lineAnchor matches lines either by regular expression or by exact trimmed text.
type lineAnchor struct {
	re   *regexp.Regexp
	line string
}

func (a lineAnchor) String() string {
	if a.re != nil {
		return a.re.String()
	}
	return a.line
}

func (a lineAnchor) match(line string) bool {
	if a.re != nil {
		return a.re.MatchString(line)
	}
	return strings.TrimSpace(line) == a.line
}

func (r *run) applyTextBlock(block *etree.Element, lines []string) ([]string, error) {
	name := block.SelectAttrValue("name", "")
	out := append([]string(nil), lines...)

	for i, d := range block.ChildElements() {
		kind, ok := ParseTextDirectiveKind(d.Tag)
		if !ok {
			return nil, &xoerrors.DirectiveError{Name: d.FullTag(), File: name}
		}
		unknown := r.unknownProperty(name, i, d.Tag)

		anchor, err := r.anchor(d, name, unknown)
		if err != nil {
			return nil, err
		}
		text := r.props.expand(d.Text(), unknown)
		all := d.SelectAttrValue("all", "") == "true"

		var matched []int
		for n, line := range out {
			if anchor.match(line) {
				matched = append(matched, n)
				if !all {
					break
				}
			}
		}

		if len(matched) == 0 {
			if r.in.StrictTargets {
				return nil, &xoerrors.SelectorError{Selector: anchor.String(), File: name, Directive: d.Tag, Message: "no line matches the anchor"}
			}
			r.result.DirectivesSkipped++
			r.result.AddWarning(&ApplyWarning{
				Category:  WarnNoAnchor,
				Block:     name,
				Index:     i,
				Directive: d.Tag,
				Selector:  anchor.String(),
				Message:   "anchor matched no line",
			})
			r.log.Warn("text directive matched nothing", "block", name, "index", i, "directive", d.Tag, "anchor", anchor.String())
			continue
		}

		out = editLines(out, matched, kind, anchor, text)
		r.result.DirectivesApplied++
		r.result.Changes = append(r.result.Changes, ChangeRecord{Index: i, Block: name, Directive: d.Tag, Selector: anchor.String(), MatchCount: len(matched)})
		r.log.Debug("applying text directive", "block", name, "index", i, "directive", d.Tag, "lines", len(matched))
	}
	return out, nil
}

func (r *run) anchor(d *etree.Element, block string, unknown func(string)) (lineAnchor, error) {
	if attr := d.SelectAttr("linePattern"); attr != nil {
		pattern := r.props.expand(attr.Value, unknown)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return lineAnchor{}, &xoerrors.ParseError{Path: block, Message: "invalid linePattern in <" + d.Tag + ">", Cause: err}
		}
		return lineAnchor{re: re}, nil
	}
	if attr := d.SelectAttr("line"); attr != nil {
		return lineAnchor{line: strings.TrimSpace(r.props.expand(attr.Value, unknown))}, nil
	}
	return lineAnchor{}, &xoerrors.DirectiveError{Name: d.Tag, File: block, Message: "missing linePattern or line attribute"}
}

// editLines applies one directive to the lines at the matched indexes.
func editLines(lines []string, matched []int, kind TextDirectiveKind, anchor lineAnchor, text string) []string {
	hit := make(map[int]bool, len(matched))
	for _, n := range matched {
		hit[n] = true
	}
	insert := blockLines(text)

	out := make([]string, 0, len(lines)+len(insert)*len(matched))
	for n, line := range lines {
		if !hit[n] {
			out = append(out, line)
			continue
		}
		switch kind {
		case TextUpdate:
			out = append(out, updateLine(line, anchor, strings.TrimSpace(text)))
		case TextReplaceLine:
			out = append(out, insert...)
		case TextInsertBefore:
			out = append(out, insert...)
			out = append(out, line)
		case TextInsertAfter:
			out = append(out, line)
			out = append(out, insert...)
		case TextRemoveLine:
		}
	}
	return out
}

// updateLine substitutes the anchor match in line. $1 style group references in
// replacement are expanded. An exact-line anchor replaces the text but keeps the
// original indentation.
func updateLine(line string, anchor lineAnchor, replacement string) string {
	if anchor.re != nil {
		return anchor.re.ReplaceAllString(line, groupTemplate(anchor.re, replacement))
	}
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	return indent + replacement
}

// groupTemplate rewrites a replacement into a regexp template. $n takes as many
// digits as still name a group of re, so "$1x" is group 1 followed by "x" and
// "$12" with one group is group 1 followed by "2". A backslash makes the next
// character literal, ${name} refers to a named group, and any other $ is literal.
func groupTemplate(re *regexp.Regexp, repl string) string {
	groups := re.NumSubexp()
	var b strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		switch {
		case c == '\\' && i+1 < len(repl):
			i++
			if repl[i] == '$' {
				b.WriteString("$$")
			} else {
				b.WriteByte(repl[i])
			}
		case c == '$' && i+1 < len(repl) && isDigit(repl[i+1]):
			n, j := int(repl[i+1]-'0'), i+2
			for ; j < len(repl) && isDigit(repl[j]); j++ {
				next := n*10 + int(repl[j]-'0')
				if next > groups {
					break
				}
				n = next
			}
			b.WriteString("${" + strconv.Itoa(n) + "}")
			i = j - 1
		case c == '$' && i+1 < len(repl) && repl[i+1] == '{':
			b.WriteByte('$')
		case c == '$':
			b.WriteString("$$")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// blockLines splits directive text into lines, dropping the blank first and last
// lines that come from element formatting and removing the common indentation.
func blockLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for len(raw) > 0 && strings.TrimSpace(raw[0]) == "" {
		raw = raw[1:]
	}
	for len(raw) > 0 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}

	indent := -1
	for _, l := range raw {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}

	out := make([]string, len(raw))
	for i, l := range raw {
		if len(l) >= indent && indent > 0 {
			l = l[indent:]
		}
		out[i] = strings.TrimRight(l, " \t")
	}
	return out
}
