package lang

import (
	"regexp"
	"strings"

	"archmap/internal/model"
)

func init() {
	register(&shellExtractor{}, ".sh", ".bash")
}

var (
	shFuncRe   = regexp.MustCompile(`(?m)^\s*(?:function\s+)?([A-Za-z_][\w-]*)\s*\(\)\s*\{`)
	shFuncKwRe = regexp.MustCompile(`(?m)^\s*function\s+([A-Za-z_][\w-]*)\s*\{`)
	shExportRe = regexp.MustCompile(`(?m)^\s*(?:export\s+|readonly\s+|declare\s+-[rx]+\s+)([A-Z_][A-Z0-9_]*)=([^\n]*)`)
	shVarRe    = regexp.MustCompile(`(?m)^([A-Z_][A-Z0-9_]*)=([^\n]*)`)
	shSourceRe = regexp.MustCompile(`(?m)^\s*(?:source|\.)\s+([^\s;]+)`)
	shParamRe  = regexp.MustCompile(`\$(\d)\b`)
)

// shellExtractor recognizes both function definition styles and treats
// exported or uppercase assignments as script constants.
type shellExtractor struct{}

func (s *shellExtractor) Language() string { return "shell" }

func (s *shellExtractor) Extract(src []byte) (*FileSymbols, error) {
	out := NewFileSymbols()
	content := string(src)
	lines := strings.Split(content, "\n")

	seen := map[string]struct{}{}
	addFunc := func(m []int, name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		body := braceBody(content, m[1]-1)
		sym := &model.Symbol{
			Name:      name,
			Kind:      model.Function,
			Signature: shellSignature(body),
			Body:      body,
		}
		if doc := shellDocBefore(lines, content, m[0]); doc != "" {
			sym.Doc = doc
		}
		out.Functions[name] = sym
	}
	for _, m := range shFuncRe.FindAllStringSubmatchIndex(content, -1) {
		addFunc(m, content[m[2]:m[3]])
	}
	for _, m := range shFuncKwRe.FindAllStringSubmatchIndex(content, -1) {
		addFunc(m, content[m[2]:m[3]])
	}

	for _, m := range shExportRe.FindAllStringSubmatch(content, -1) {
		out.Constants[m[1]] = classifyValue(m[2])
	}
	for _, m := range shVarRe.FindAllStringSubmatch(content, -1) {
		if _, ok := out.Constants[m[1]]; !ok {
			out.Constants[m[1]] = classifyValue(m[2])
		}
	}

	for _, m := range shSourceRe.FindAllStringSubmatch(content, -1) {
		out.Imports = append(out.Imports, m[1])
	}

	return out, nil
}

// shellSignature lists the positional parameters a function body reads.
func shellSignature(body string) string {
	max := 0
	for _, m := range shParamRe.FindAllStringSubmatch(body, -1) {
		n := int(m[1][0] - '0')
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return "()"
	}
	params := make([]string, max)
	for i := range params {
		params[i] = "$" + string(rune('1'+i))
	}
	return "(" + strings.Join(params, ", ") + ")"
}

// shellDocBefore returns the comment line directly above the definition
// at byte offset pos.
func shellDocBefore(lines []string, content string, pos int) string {
	lineNo := strings.Count(content[:pos], "\n")
	for i := lineNo - 1; i >= 0 && i >= lineNo-3; i-- {
		t := strings.TrimSpace(lines[i])
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "#") && !strings.HasPrefix(t, "#!") {
			return firstLine(strings.TrimSpace(strings.TrimLeft(t, "# ")))
		}
		break
	}
	return ""
}
