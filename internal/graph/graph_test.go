package graph

import (
	"reflect"
	"testing"

	"archmap/internal/model"
)

func pyFile(path string, funcs map[string]string) *model.FileRecord {
	fr := &model.FileRecord{
		Path:      path,
		Language:  "python",
		Parsed:    true,
		Functions: make(map[string]*model.Symbol),
	}
	for name, body := range funcs {
		fr.Functions[name] = &model.Symbol{Name: name, Kind: model.Function, Body: body}
	}
	return fr
}

func TestResolveSameFile(t *testing.T) {
	t.Parallel()

	files := map[string]*model.FileRecord{
		"app.py": pyFile("app.py", map[string]string{
			"main":   "run()\nhelper()",
			"helper": "pass",
		}),
		"other.py": pyFile("other.py", map[string]string{
			"helper": "pass",
		}),
	}

	Resolve(files, nil)

	main := files["app.py"].Functions["main"]
	want := []string{"app.py::helper"}
	if !reflect.DeepEqual(main.Calls, want) {
		t.Errorf("main.Calls = %v, want %v", main.Calls, want)
	}
	// Same-file definition wins over the other candidate.
	if got := files["other.py"].Functions["helper"].CalledBy; got != nil {
		t.Errorf("other.py helper CalledBy = %v", got)
	}
}

func TestResolveViaImport(t *testing.T) {
	t.Parallel()

	files := map[string]*model.FileRecord{
		"app.py":  pyFile("app.py", map[string]string{"main": "save()"}),
		"db.py":   pyFile("db.py", map[string]string{"save": "pass"}),
		"disk.py": pyFile("disk.py", map[string]string{"save": "pass"}),
	}
	deps := map[string][]string{"app.py": {"db.py"}}

	Resolve(files, deps)

	main := files["app.py"].Functions["main"]
	if !reflect.DeepEqual(main.Calls, []string{"db.py::save"}) {
		t.Errorf("main.Calls = %v", main.Calls)
	}
}

func TestResolveUniqueDefiningFile(t *testing.T) {
	t.Parallel()

	// No imports at all, but bar exists in exactly one file.
	files := map[string]*model.FileRecord{
		"a.py": pyFile("a.py", map[string]string{"foo": "bar()"}),
		"b.py": pyFile("b.py", map[string]string{"bar": "pass"}),
	}

	Resolve(files, nil)

	foo := files["a.py"].Functions["foo"]
	if !reflect.DeepEqual(foo.Calls, []string{"b.py::bar"}) {
		t.Errorf("foo.Calls = %v", foo.Calls)
	}
	bar := files["b.py"].Functions["bar"]
	if !reflect.DeepEqual(bar.CalledBy, []string{"a.py::foo"}) {
		t.Errorf("bar.CalledBy = %v", bar.CalledBy)
	}
}

func TestAmbiguousStaysUnresolved(t *testing.T) {
	t.Parallel()

	files := map[string]*model.FileRecord{
		"a.py": pyFile("a.py", map[string]string{"caller": "save()"}),
		"b.py": pyFile("b.py", map[string]string{"save": "pass"}),
		"c.py": pyFile("c.py", map[string]string{"save": "pass"}),
	}

	Resolve(files, nil)

	if got := files["a.py"].Functions["caller"].Calls; got != nil {
		t.Errorf("ambiguous call resolved: %v", got)
	}
}

func TestStopwordsNotResolved(t *testing.T) {
	t.Parallel()

	files := map[string]*model.FileRecord{
		"a.py": pyFile("a.py", map[string]string{
			"caller": "print(x)\nlen(y)\nreal()",
			"print":  "pass",
			"real":   "pass",
		}),
	}

	Resolve(files, nil)

	caller := files["a.py"].Functions["caller"]
	if !reflect.DeepEqual(caller.Calls, []string{"a.py::real"}) {
		t.Errorf("caller.Calls = %v", caller.Calls)
	}
}

func TestBidirectionalEdges(t *testing.T) {
	t.Parallel()

	files := map[string]*model.FileRecord{
		"app.py": pyFile("app.py", map[string]string{
			"a": "b()",
			"b": "c()",
			"c": "pass",
		}),
	}

	Resolve(files, nil)

	// Every calls entry must have a matching called_by, and vice versa.
	for _, fr := range files {
		fr.Symbols(func(id string, sym *model.Symbol) {
			for _, target := range sym.Calls {
				p, q := model.SplitID(target)
				ts := files[p].Lookup(q)
				if ts == nil || !containsID(ts.CalledBy, id) {
					t.Errorf("%s calls %s without reverse edge", id, target)
				}
			}
			for _, caller := range sym.CalledBy {
				p, q := model.SplitID(caller)
				cs := files[p].Lookup(q)
				if cs == nil || !containsID(cs.Calls, id) {
					t.Errorf("%s called_by %s without forward edge", id, caller)
				}
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()

	files := map[string]*model.FileRecord{
		"app.py": pyFile("app.py", map[string]string{
			"a": "b()",
			"b": "pass",
		}),
	}

	Resolve(files, nil)
	first := snapshot(files)
	Resolve(files, nil)
	second := snapshot(files)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolve not idempotent:\n%v\n%v", first, second)
	}
}

func TestMethodCalls(t *testing.T) {
	t.Parallel()

	store := &model.FileRecord{
		Path:     "store.py",
		Language: "python",
		Parsed:   true,
		Classes: map[string]*model.ClassRecord{
			"Store": {
				Name: "Store",
				Kind: model.ClassPlain,
				Methods: map[string]*model.Symbol{
					"save":     {Name: "Store.save", Kind: model.Method, Body: "self.validate(x)"},
					"validate": {Name: "Store.validate", Kind: model.Method, Body: "pass"},
				},
			},
		},
		Functions: map[string]*model.Symbol{},
	}
	files := map[string]*model.FileRecord{"store.py": store}

	Resolve(files, nil)

	save := store.Classes["Store"].Methods["save"]
	if !reflect.DeepEqual(save.Calls, []string{"store.py::Store.validate"}) {
		t.Errorf("save.Calls = %v", save.Calls)
	}
}

func TestPatchFileDropsStaleEdges(t *testing.T) {
	t.Parallel()

	files := map[string]*model.FileRecord{
		"app.py": pyFile("app.py", map[string]string{"main": "helper()"}),
		"lib.py": pyFile("lib.py", map[string]string{"helper": "pass"}),
	}
	Resolve(files, nil)

	if got := files["app.py"].Functions["main"].Calls; !reflect.DeepEqual(got, []string{"lib.py::helper"}) {
		t.Fatalf("precondition: main.Calls = %v", got)
	}

	// helper disappears from lib.py on re-extraction.
	files["lib.py"] = pyFile("lib.py", map[string]string{"other": "pass"})
	PatchFile(files, nil, "lib.py")

	if got := files["app.py"].Functions["main"].Calls; got != nil {
		t.Errorf("stale edge survived: %v", got)
	}
}

func TestPatchFileKeepsSurvivingEdges(t *testing.T) {
	t.Parallel()

	files := map[string]*model.FileRecord{
		"app.py": pyFile("app.py", map[string]string{"main": "helper()"}),
		"lib.py": pyFile("lib.py", map[string]string{"helper": "pass"}),
	}
	Resolve(files, nil)

	// helper survives the edit with a new body.
	files["lib.py"] = pyFile("lib.py", map[string]string{"helper": "x = 1"})
	PatchFile(files, nil, "lib.py")

	if got := files["app.py"].Functions["main"].Calls; !reflect.DeepEqual(got, []string{"lib.py::helper"}) {
		t.Errorf("surviving edge lost: %v", got)
	}
	if got := files["lib.py"].Functions["helper"].CalledBy; !reflect.DeepEqual(got, []string{"app.py::main"}) {
		t.Errorf("reverse edge = %v", got)
	}
}

func TestRemoveFile(t *testing.T) {
	t.Parallel()

	files := map[string]*model.FileRecord{
		"app.py": pyFile("app.py", map[string]string{"main": "helper()"}),
		"lib.py": pyFile("lib.py", map[string]string{"helper": "pass"}),
	}
	Resolve(files, nil)

	RemoveFile(files, "lib.py")

	if _, ok := files["lib.py"]; ok {
		t.Fatal("lib.py still present")
	}
	if got := files["app.py"].Functions["main"].Calls; got != nil {
		t.Errorf("edge into removed file survived: %v", got)
	}
}

func containsID(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func snapshot(files map[string]*model.FileRecord) map[string][][]string {
	out := make(map[string][][]string)
	for _, fr := range files {
		fr.Symbols(func(id string, sym *model.Symbol) {
			out[id] = [][]string{append([]string(nil), sym.Calls...), append([]string(nil), sym.CalledBy...)}
		})
	}
	return out
}
