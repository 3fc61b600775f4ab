package intel

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dhamidi/phpintel/php"
)

// Unknown is displayed in place of an empty return type.
const Unknown = "mixed"

// Source supplies declarations by owning class.
type Source interface {
	Has(class string) bool
	Classes() []string
	Declarations(class string) []php.Declaration
}

// ResolveClass walks chain through member return types and the inheritance
// graph. It returns the class owning the final element and that element as
// the partial name to complete. An empty chain resolves to nothing.
func ResolveClass(src Source, chain []string) (class, partial string) {
	return resolveClass(src, append([]string(nil), chain...), map[string]bool{})
}

func resolveClass(src Source, chain []string, visited map[string]bool) (string, string) {
	switch len(chain) {
	case 0:
		return "", ""
	case 1:
		if src.Has(chain[0]) {
			return chain[0], ""
		}
		return php.GlobalClass, chain[0]
	case 2:
		return chain[0], chain[1]
	}

	decls := src.Declarations(chain[0])
	for _, d := range decls {
		if d.Kind == php.KindClass || !d.MatchesName(chain[1]) {
			continue
		}
		if d.Returns != "" {
			next := append([]string{d.Returns}, chain[2:]...)
			return resolveClass(src, next, map[string]bool{})
		}
	}

	visited[chain[0]] = true
	if parent := extendsOf(decls); parent != "" && !visited[parent] {
		chain[0] = parent
		return resolveClass(src, chain, visited)
	}
	return chain[0], chain[1]
}

func extendsOf(decls []php.Declaration) string {
	for _, d := range decls {
		if d.Extends != "" {
			return d.Extends
		}
	}
	return ""
}

// Query selects completions within one class.
type Query struct {
	Class      string
	Partial    string
	Operator   php.Operator
	Visibility php.Visibility
}

// FindCompletions collects the members of q.Class and its ancestors that
// match q, or class names when q.Class is the global bucket. Each class is
// expanded at most once. Results are in traversal order.
func FindCompletions(src Source, q Query) []php.Declaration {
	if q.Visibility == "" {
		q.Visibility = php.VisibilityPublic
	}
	var found []php.Declaration
	findCompletions(src, q, q.Class, map[string]bool{}, &found)
	return found
}

func findCompletions(src Source, q Query, class string, visited map[string]bool, found *[]php.Declaration) {
	if class == "" || visited[class] {
		return
	}
	visited[class] = true
	partial := strings.ToLower(q.Partial)

	if class == php.GlobalClass {
		for _, name := range src.Classes() {
			if name == php.GlobalClass || !strings.HasPrefix(strings.ToLower(name), partial) {
				continue
			}
			*found = append(*found, php.Declaration{
				Class:      name,
				Kind:       php.KindClass,
				Name:       name,
				Visibility: php.VisibilityPublic,
				Returns:    name,
			})
		}
	}

	wantStatic := q.Operator == php.OperatorStatic
	for _, d := range src.Declarations(class) {
		if d.Extends != "" {
			findCompletions(src, q, d.Extends, visited, found)
		}
		if d.Kind == php.KindClass || d.Name == "" {
			continue
		}
		if !matchesPartial(d.Name, partial) {
			continue
		}
		if d.Static != wantStatic {
			continue
		}
		if d.Visibility != q.Visibility && q.Visibility != php.VisibilityAll {
			continue
		}
		*found = append(*found, d)
	}
}

func matchesPartial(name, partial string) bool {
	name = strings.ToLower(name)
	return strings.HasPrefix(name, partial) || strings.HasPrefix(strings.TrimPrefix(name, "$"), partial)
}

type CompletionItem struct {
	// Label is the display key: "name(args)\treturns" for functions and
	// "name\treturns" otherwise.
	Label       string
	Kind        php.Kind
	Detail      string
	InsertText  string
	Declaration php.Declaration
}

// Name is the label without its return type.
func (c CompletionItem) Name() string {
	name, _, _ := strings.Cut(c.Label, "\t")
	return name
}

// Items formats declarations for display, dropping duplicates and sorting
// by label.
func Items(decls []php.Declaration) []CompletionItem {
	seen := make(map[[2]string]bool)
	var items []CompletionItem
	for _, d := range decls {
		item := itemFor(d)
		key := [2]string{item.Label, item.InsertText}
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Label != items[j].Label {
			return items[i].Label < items[j].Label
		}
		return items[i].InsertText < items[j].InsertText
	})
	return items
}

func itemFor(d php.Declaration) CompletionItem {
	returns := d.Returns
	if returns == "" {
		returns = Unknown
	}
	item := CompletionItem{
		Kind:        d.Kind,
		Detail:      returns,
		Declaration: d,
	}

	switch d.Kind {
	case php.KindFunc:
		names := make([]string, len(d.Args))
		for i, arg := range d.Args {
			names[i] = arg.Name
		}
		item.Label = d.Name + "(" + strings.Join(names, ", ") + ")\t" + returns
		item.InsertText = FormatSnippet(d)
	case php.KindVar:
		item.Label = d.Name + "\t" + returns
		item.InsertText = d.Name
		if !d.Static {
			item.InsertText = strings.TrimPrefix(d.Name, "$")
		}
	default:
		item.Label = d.Name + "\t" + returns
		item.InsertText = d.Name
	}
	return item
}

// FormatSnippet renders a call with one tab stop per argument:
// name(${1:\$a}, ${2:\$b}).
func FormatSnippet(d php.Declaration) string {
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteByte('(')
	for i, arg := range d.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("${")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte(':')
		b.WriteString(strings.ReplaceAll(arg.Name, "$", `\$`))
		b.WriteByte('}')
	}
	b.WriteByte(')')
	return b.String()
}
