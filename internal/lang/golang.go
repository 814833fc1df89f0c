package lang

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"archmap/internal/model"
)

func init() {
	register(&goExtractor{}, ".go")
}

// goExtractor uses the standard parser instead of patterns, so signatures
// and receiver bindings are exact.
type goExtractor struct{}

func (g *goExtractor) Language() string { return "go" }

func (g *goExtractor) Extract(src []byte) (*FileSymbols, error) {
	out := NewFileSymbols()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	for _, imp := range file.Imports {
		out.Imports = append(out.Imports, strings.Trim(imp.Path.Value, `"`))
	}

	// Types first so methods attach regardless of declaration order.
	for _, decl := range file.Decls {
		if d, ok := decl.(*ast.GenDecl); ok {
			g.genDecl(out, d, src, fset)
		}
	}
	for _, decl := range file.Decls {
		if d, ok := decl.(*ast.FuncDecl); ok {
			g.funcDecl(out, d, src, fset)
		}
	}
	return out, nil
}

func (g *goExtractor) genDecl(out *FileSymbols, d *ast.GenDecl, src []byte, fset *token.FileSet) {
	switch d.Tok {
	case token.CONST:
		for _, spec := range d.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				if name.Name == "_" {
					continue
				}
				val := "value"
				if i < len(vs.Values) {
					val = classifyValue(nodeText(src, fset, vs.Values[i]))
				}
				out.Constants[name.Name] = val
			}
		}
	case token.TYPE:
		for _, spec := range d.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			switch t := ts.Type.(type) {
			case *ast.StructType:
				cls := &model.ClassRecord{Name: ts.Name.Name, Kind: model.ClassPlain}
				for _, f := range t.Fields.List {
					for _, fn := range f.Names {
						cls.Properties = append(cls.Properties, fn.Name)
					}
					if len(f.Names) == 0 {
						cls.Inherits = append(cls.Inherits, nodeText(src, fset, f.Type))
					}
				}
				cls.Doc = declDoc(d, ts)
				out.Classes[ts.Name.Name] = cls
			case *ast.InterfaceType:
				cls := &model.ClassRecord{
					Name:     ts.Name.Name,
					Kind:     model.ClassInterface,
					Abstract: true,
				}
				for _, m := range t.Methods.List {
					for _, mn := range m.Names {
						cls.Properties = append(cls.Properties, mn.Name)
					}
				}
				cls.Doc = declDoc(d, ts)
				out.Classes[ts.Name.Name] = cls
			}
		}
	}
}

func (g *goExtractor) funcDecl(out *FileSymbols, d *ast.FuncDecl, src []byte, fset *token.FileSet) {
	sym := &model.Symbol{
		Name:      d.Name.Name,
		Kind:      model.Function,
		Signature: funcSignature(src, fset, d.Type),
	}
	if d.Doc != nil {
		sym.Doc = firstLine(strings.TrimSpace(d.Doc.Text()))
	}
	if d.Body != nil {
		sym.Body = nodeText(src, fset, d.Body)
	}

	if d.Recv != nil && len(d.Recv.List) == 1 {
		recv := receiverType(d.Recv.List[0].Type)
		sym.Kind = model.Method
		sym.Name = recv + "." + d.Name.Name
		if cls, ok := out.Classes[recv]; ok {
			if cls.Methods == nil {
				cls.Methods = make(map[string]*model.Symbol)
			}
			cls.Methods[d.Name.Name] = sym
			return
		}
		// Receiver type declared in another file of the package.
		out.Functions[sym.Name] = sym
		return
	}
	out.Functions[d.Name.Name] = sym
}

func funcSignature(src []byte, fset *token.FileSet, ft *ast.FuncType) string {
	sig := nodeText(src, fset, ft.Params)
	if ft.Results != nil {
		res := nodeText(src, fset, ft.Results)
		if len(ft.Results.List) == 1 && len(ft.Results.List[0].Names) == 0 {
			res = strings.TrimSuffix(strings.TrimPrefix(res, "("), ")")
		}
		sig += " " + res
	}
	return sig
}

func receiverType(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.StarExpr:
		return receiverType(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverType(t.X)
	case *ast.IndexListExpr:
		return receiverType(t.X)
	}
	return ""
}

func declDoc(d *ast.GenDecl, ts *ast.TypeSpec) string {
	if ts.Doc != nil {
		return firstLine(strings.TrimSpace(ts.Doc.Text()))
	}
	if d.Doc != nil {
		return firstLine(strings.TrimSpace(d.Doc.Text()))
	}
	return ""
}

func nodeText(src []byte, fset *token.FileSet, n ast.Node) string {
	start := fset.Position(n.Pos()).Offset
	end := fset.Position(n.End()).Offset
	if start < 0 || end > len(src) || start > end {
		return ""
	}
	return string(src[start:end])
}
