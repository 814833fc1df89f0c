package lang

import (
	"regexp"
	"strings"

	"archmap/internal/model"
)

func init() {
	register(&pythonExtractor{}, ".py")
}

var (
	pyImportRe      = regexp.MustCompile(`^(?:from\s+(\S+)\s+)?import\s+(.+)$`)
	pyDecoratorRe   = regexp.MustCompile(`^[ \t]*@([\w.]+)(?:\(.*\))?\s*$`)
	pyClassRe       = regexp.MustCompile(`^([ \t]*)class\s+(\w+)(?:\s*\((.*?)\))?\s*:`)
	pyFuncStartRe   = regexp.MustCompile(`^([ \t]*)(async\s+)?def\s+(\w+)\s*\(`)
	pyFuncFullRe    = regexp.MustCompile(`^([ \t]*)(async\s+)?def\s+(\w+)\s*\((.*?)\)(?:\s*->\s*([^:]+))?:`)
	pySigEndRe      = regexp.MustCompile(`\).*:`)
	pyConstRe       = regexp.MustCompile(`^([A-Z_][A-Z0-9_]*)\s*=\s*(.+)$`)
	pyClassConstRe  = regexp.MustCompile(`^([ \t]+)([A-Z_][A-Z0-9_]*)\s*=\s*(.+)$`)
	pyEnumValueRe   = regexp.MustCompile(`^([ \t]+)([A-Z_][A-Z0-9_]*)\s*(?:=\s*(.+))?$`)
	pyPropertyRe    = regexp.MustCompile(`^([ \t]+)(\w+)\s*:\s*[^=\n]+`)
	pyDocstringRe   = regexp.MustCompile(`^[ \t]*(?:'''|""")(.*?)(?:'''|""")?\s*$`)
	pyWhitespaceRe  = regexp.MustCompile(`\s+`)
)

// skipDunder lists special methods not worth index space. __init__ stays.
var skipDunder = map[string]struct{}{
	"__repr__": {}, "__str__": {}, "__hash__": {}, "__eq__": {}, "__ne__": {},
	"__lt__": {}, "__le__": {}, "__gt__": {}, "__ge__": {}, "__bool__": {},
}

// pythonExtractor recognizes Python declarations line by line, using
// indentation for scope. It is deliberately tolerant: lines it cannot match
// are skipped, never fatal.
type pythonExtractor struct{}

func (p *pythonExtractor) Language() string { return "python" }

func (p *pythonExtractor) Extract(src []byte) (*FileSymbols, error) {
	out := NewFileSymbols()
	lines := strings.Split(string(src), "\n")

	p.extractImports(lines, out)

	var (
		currentClass  *model.ClassRecord
		classIndent   = -1
		pendingDecors []string
	)

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") {
			continue
		}

		if m := pyDecoratorRe.FindStringSubmatch(line); m != nil {
			pendingDecors = append(pendingDecors, m[1])
			continue
		}

		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			indent := len(m[1])
			// Nested classes are not indexed; the enclosing class context
			// simply continues.
			if indent == 0 {
				currentClass = p.newClass(m[2], m[3], pendingDecors)
				pendingDecors = nil
				classIndent = indent
				if doc := p.docstringAfter(lines, i); doc != "" {
					currentClass.Doc = doc
				}
				out.Classes[m[2]] = currentClass
			}
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " \t"))

		// Leaving the class body.
		if currentClass != nil && trimmed != "" && indent <= classIndent {
			currentClass = nil
			classIndent = -1
		}

		if currentClass == nil {
			if m := pyConstRe.FindStringSubmatch(line); m != nil {
				out.Constants[m[1]] = classifyValue(stripComment(m[2]))
				pendingDecors = nil
				continue
			}
		} else {
			if currentClass.Kind == model.ClassEnum {
				if m := pyEnumValueRe.FindStringSubmatch(line); m != nil && len(m[1]) > classIndent {
					currentClass.Values = append(currentClass.Values, m[2])
					continue
				}
			}
			if m := pyClassConstRe.FindStringSubmatch(line); m != nil && len(m[1]) > classIndent {
				if currentClass.Constants == nil {
					currentClass.Constants = make(map[string]string)
				}
				currentClass.Constants[m[2]] = classifyValue(stripComment(m[3]))
				continue
			}
		}

		if m := pyFuncStartRe.FindStringSubmatch(line); m != nil {
			name := m[3]
			end := p.signatureEnd(lines, i)
			if end < 0 {
				continue
			}
			fullSig := joinSignature(lines[i : end+1])
			cm := pyFuncFullRe.FindStringSubmatch(fullSig)
			if cm == nil {
				i = end
				continue
			}
			i = end

			if _, skip := skipDunder[name]; skip {
				pendingDecors = nil
				continue
			}

			sym := &model.Symbol{
				Name:      name,
				Kind:      model.Function,
				Signature: p.signature(cm),
			}
			if len(pendingDecors) > 0 {
				sym.Stereotypes = pendingDecors
				if currentClass != nil && containsStr(pendingDecors, "abstractmethod") {
					currentClass.Abstract = true
				}
				pendingDecors = nil
			}
			if doc := p.docstringAfter(lines, i); doc != "" {
				sym.Doc = doc
			}
			sym.Body = indentedBody(lines, i+1, indent)

			if currentClass != nil && indent > classIndent {
				sym.Name = currentClass.Name + "." + name
				sym.Kind = model.Method
				currentClass.Methods[name] = sym
			} else if indent == 0 {
				out.Functions[name] = sym
			}
			continue
		}

		if currentClass != nil {
			if m := pyPropertyRe.FindStringSubmatch(line); m != nil && len(m[1]) > classIndent &&
				!strings.HasPrefix(m[2], "_") {
				currentClass.Properties = append(currentClass.Properties, m[2])
			}
		}

		pendingDecors = nil
	}

	return out, nil
}

func (p *pythonExtractor) extractImports(lines []string, out *FileSymbols) {
	for _, line := range lines {
		m := pyImportRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if m[1] != "" {
			out.Imports = append(out.Imports, m[1])
			continue
		}
		for _, item := range strings.Split(m[2], ",") {
			item = strings.TrimSpace(item)
			if i := strings.Index(item, " as "); i >= 0 {
				item = item[:i]
			}
			if item != "" {
				out.Imports = append(out.Imports, item)
			}
		}
	}
}

func (p *pythonExtractor) newClass(name, bases string, decors []string) *model.ClassRecord {
	cls := &model.ClassRecord{
		Name:    name,
		Kind:    model.ClassPlain,
		Methods: make(map[string]*model.Symbol),
	}
	if len(decors) > 0 {
		cls.Stereotypes = append([]string(nil), decors...)
	}
	for _, b := range strings.Split(bases, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cls.Inherits = append(cls.Inherits, b)
		}
	}
	for _, b := range cls.Inherits {
		lower := strings.ToLower(b)
		switch {
		case strings.Contains(lower, "enum"):
			cls.Kind = model.ClassEnum
		case strings.Contains(lower, "exception") || strings.Contains(lower, "error"):
			cls.Kind = model.ClassException
		case lower == "abc" || strings.Contains(lower, "protocol"):
			cls.Abstract = true
		}
	}
	return cls
}

// signatureEnd finds the line index where a def's signature closes.
func (p *pythonExtractor) signatureEnd(lines []string, start int) int {
	for j := start; j < len(lines); j++ {
		if pySigEndRe.MatchString(lines[j]) {
			return j
		}
	}
	return -1
}

func (p *pythonExtractor) signature(m []string) string {
	params := strings.TrimSpace(pyWhitespaceRe.ReplaceAllString(m[4], " "))
	sig := "(" + params + ")"
	if m[5] != "" {
		sig += " -> " + strings.TrimSpace(m[5])
	}
	if m[2] != "" {
		sig = "async " + sig
	}
	return sig
}

func (p *pythonExtractor) docstringAfter(lines []string, i int) string {
	if i+1 >= len(lines) {
		return ""
	}
	if m := pyDocstringRe.FindStringSubmatch(lines[i+1]); m != nil {
		return firstLine(m[1])
	}
	return ""
}

// indentedBody collects the lines indented deeper than ownerIndent starting
// at from. Used to retain symbol bodies for call resolution.
func indentedBody(lines []string, from, ownerIndent int) string {
	var body []string
	for j := from; j < len(lines); j++ {
		line := lines[j]
		if strings.TrimSpace(line) == "" {
			body = append(body, line)
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent <= ownerIndent {
			break
		}
		body = append(body, line)
	}
	return strings.Join(body, "\n")
}

func joinSignature(lines []string) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		if i == 0 {
			parts[i] = strings.TrimRight(l, " \t")
		} else {
			parts[i] = strings.TrimSpace(l)
		}
	}
	return strings.Join(parts, " ")
}

func stripComment(v string) string {
	if i := strings.Index(v, "#"); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
