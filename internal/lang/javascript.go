package lang

import (
	"regexp"
	"strings"

	"archmap/internal/model"
)

func init() {
	js := &jsExtractor{}
	register(js, ".js", ".jsx")
	registerAs(js, "typescript", ".ts", ".tsx")
}

var (
	jsImportRe    = regexp.MustCompile(`import\s+(?:[^'"]*?\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequireRe   = regexp.MustCompile(`(?:const|let|var)\s+(?:\{[^}]+\}|\w+)\s*=\s*require\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	jsClassRe     = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(abstract\s+)?class\s+(\w+)(?:\s+extends\s+([\w.]+))?`)
	jsEnumRe      = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const\s+)?enum\s+(\w+)\s*\{`)
	jsInterfaceRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?interface\s+(\w+)(?:\s+extends\s+([^{]+))?\s*\{`)
	jsConstRe     = regexp.MustCompile(`(?m)^\s*(?:export\s+)?const\s+([A-Z_][A-Z0-9_]*)\s*=\s*([^;\n]+)`)
	jsFuncRe      = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(async\s+)?function\s*\*?\s*(\w+)\s*\(([^)]*)\)\s*(?::\s*([^{\n]+))?`)
	jsArrowRe     = regexp.MustCompile(`(?m)^\s*(?:export\s+)?const\s+(\w+)\s*(?::\s*[^=\n]+)?=\s*(async\s+)?\(([^)]*)\)\s*(?::\s*([^=\n]+))?=>`)
	jsMethodRe    = regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|protected\s+|static\s+)*(async\s+)?(\w+)\s*\(([^)]*)\)\s*(?::\s*([^{\n]+))?\s*\{`)
	jsStaticRe    = regexp.MustCompile(`static\s+(?:readonly\s+)?([A-Z_][A-Z0-9_]*)\s*=\s*([^;\n]+)`)
	jsEnumValRe   = regexp.MustCompile(`(?m)^\s*(\w+)\s*(?:=\s*[^,\n]+)?\s*,?\s*$`)
	jsDecoratorRe = regexp.MustCompile(`(?m)^\s*@(\w+)(?:\(.*\))?\s*$`)
	jsDocRe       = regexp.MustCompile(`/\*\*\s*\n?\s*\*?\s*([^@\n*][^@\n]*)`)
	jsSpaceRe     = regexp.MustCompile(`\s+`)
)

// jsKeywords are tokens the method regex would otherwise mistake for names.
var jsKeywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {}, "try": {},
	"return": {}, "function": {}, "get": {}, "set": {}, "new": {}, "typeof": {},
}

// jsExtractor recognizes JavaScript and TypeScript declarations with
// content-level patterns and brace matching for bodies.
type jsExtractor struct{}

func (j *jsExtractor) Language() string { return "javascript" }

func (j *jsExtractor) Extract(src []byte) (*FileSymbols, error) {
	out := NewFileSymbols()
	content := string(src)

	for _, m := range jsImportRe.FindAllStringSubmatch(content, -1) {
		out.Imports = append(out.Imports, m[1])
	}
	for _, m := range jsRequireRe.FindAllStringSubmatch(content, -1) {
		out.Imports = append(out.Imports, m[1])
	}

	for _, m := range jsConstRe.FindAllStringSubmatch(content, -1) {
		out.Constants[m[1]] = classifyValue(m[2])
	}

	for _, m := range jsEnumRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		body := braceBody(content, m[1]-1)
		cls := &model.ClassRecord{Name: name, Kind: model.ClassEnum}
		for _, vm := range jsEnumValRe.FindAllStringSubmatch(body, -1) {
			cls.Values = append(cls.Values, vm[1])
		}
		out.Classes[name] = cls
	}

	for _, m := range jsInterfaceRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		cls := &model.ClassRecord{Name: name, Kind: model.ClassInterface, Abstract: true}
		if m[4] >= 0 {
			for _, e := range strings.Split(content[m[4]:m[5]], ",") {
				if e = strings.TrimSpace(e); e != "" {
					cls.Inherits = append(cls.Inherits, e)
				}
			}
		}
		if doc := jsdocBefore(content, m[0]); doc != "" {
			cls.Doc = doc
		}
		out.Classes[name] = cls
	}

	// Classes and their spans, so standalone functions can be told apart
	// from methods.
	type span struct{ start, end int }
	classSpans := map[string]span{}

	for _, m := range jsClassRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[4]:m[5]]
		open := strings.IndexByte(content[m[1]:], '{')
		if open < 0 {
			continue
		}
		bodyStart := m[1] + open
		body := braceBody(content, bodyStart)
		cls := &model.ClassRecord{
			Name:    name,
			Kind:    model.ClassPlain,
			Methods: make(map[string]*model.Symbol),
		}
		if m[2] >= 0 {
			cls.Abstract = true
		}
		if m[6] >= 0 {
			parent := content[m[6]:m[7]]
			cls.Inherits = []string{parent}
			if strings.Contains(strings.ToLower(parent), "error") ||
				strings.Contains(strings.ToLower(parent), "exception") {
				cls.Kind = model.ClassException
			}
		}
		if doc := jsdocBefore(content, m[0]); doc != "" {
			cls.Doc = doc
		}
		cls.Stereotypes = decoratorsBefore(content, m[0])
		j.extractMethods(cls, body)
		for _, sm := range jsStaticRe.FindAllStringSubmatch(body, -1) {
			if cls.Constants == nil {
				cls.Constants = make(map[string]string)
			}
			cls.Constants[sm[1]] = classifyValue(sm[2])
		}
		out.Classes[name] = cls
		classSpans[name] = span{m[0], bodyStart + len(body) + 1}
	}

	addFunc := func(mi []int, name string, async bool, params, ret string) {
		for _, sp := range classSpans {
			if mi[0] >= sp.start && mi[0] < sp.end {
				return
			}
		}
		sym := &model.Symbol{
			Name:      name,
			Kind:      model.Function,
			Signature: jsSignature(async, params, ret),
		}
		if doc := jsdocBefore(content, mi[0]); doc != "" {
			sym.Doc = doc
		}
		if open := strings.IndexByte(content[mi[1]:], '{'); open >= 0 && open < 100 {
			sym.Body = braceBody(content, mi[1]+open)
		}
		out.Functions[name] = sym
	}

	for _, m := range jsFuncRe.FindAllStringSubmatchIndex(content, -1) {
		addFunc(m, content[m[4]:m[5]], m[2] >= 0, group(content, m, 3), group(content, m, 4))
	}
	for _, m := range jsArrowRe.FindAllStringSubmatchIndex(content, -1) {
		addFunc(m, content[m[2]:m[3]], m[4] >= 0, group(content, m, 3), group(content, m, 4))
	}

	return out, nil
}

func (j *jsExtractor) extractMethods(cls *model.ClassRecord, body string) {
	for _, m := range jsMethodRe.FindAllStringSubmatchIndex(body, -1) {
		name := body[m[4]:m[5]]
		if _, kw := jsKeywords[name]; kw {
			continue
		}
		sym := &model.Symbol{
			Name:      cls.Name + "." + name,
			Kind:      model.Method,
			Signature: jsSignature(m[2] >= 0, group(body, m, 3), group(body, m, 4)),
		}
		if open := strings.IndexByte(body[m[1]-1:], '{'); open >= 0 {
			sym.Body = braceBody(body, m[1]-1+open)
		}
		cls.Methods[name] = sym
	}
}

func jsSignature(async bool, params, ret string) string {
	sig := "(" + strings.TrimSpace(jsSpaceRe.ReplaceAllString(params, " ")) + ")"
	if ret = strings.TrimSpace(ret); ret != "" {
		sig += ": " + ret
	}
	if async {
		sig = "async " + sig
	}
	return sig
}

// braceBody returns the text between the brace at or after open and its
// matching close brace. Scanning is capped so a pathological file cannot
// stall extraction.
func braceBody(content string, open int) string {
	for open < len(content) && content[open] != '{' {
		open++
	}
	if open >= len(content) {
		return ""
	}
	depth := 0
	limit := open + 100000
	if limit > len(content) {
		limit = len(content)
	}
	for i := open; i < limit; i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[open+1 : i]
			}
		}
	}
	return content[open+1 : limit]
}

// jsdocBefore returns the first line of a JSDoc block ending just before pos.
func jsdocBefore(content string, pos int) string {
	start := pos - 400
	if start < 0 {
		start = 0
	}
	window := content[start:pos]
	end := strings.LastIndex(window, "*/")
	if end < 0 || strings.TrimSpace(window[end+2:]) != "" {
		return ""
	}
	ms := jsDocRe.FindAllStringSubmatch(window[:end], -1)
	if len(ms) == 0 {
		return ""
	}
	return firstLine(strings.TrimSpace(strings.TrimSuffix(ms[len(ms)-1][1], "*")))
}

// decoratorsBefore collects @Decorator lines immediately preceding pos.
func decoratorsBefore(content string, pos int) []string {
	start := pos - 300
	if start < 0 {
		start = 0
	}
	lines := strings.Split(content[start:pos], "\n")
	var decors []string
	for i := len(lines) - 1; i >= 0; i-- {
		t := strings.TrimSpace(lines[i])
		if t == "" {
			continue
		}
		m := jsDecoratorRe.FindStringSubmatch(lines[i])
		if m == nil {
			break
		}
		decors = append([]string{m[1]}, decors...)
	}
	return decors
}

func group(s string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}
