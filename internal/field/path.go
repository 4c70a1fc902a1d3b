package field

import "strconv"

// Paths computes a field's instance path and schema path from its
// parent's paths and its index among siblings.
//
// Named fields append their name to both paths. Unnamed structural
// fields leave the instance path untouched and contribute a synthetic
// "_index-<n>" segment to the schema path so every schema node stays
// addressable.
func Paths(f *Field, parentPath []any, parentSchemaPath []string, index int) (path []any, schemaPath []string) {
	if f.Name != "" {
		path = appendPath(parentPath, f.Name)
		schemaPath = appendSchemaPath(parentSchemaPath, f.Name)
		return path, schemaPath
	}
	path = appendPath(parentPath)
	schemaPath = appendSchemaPath(parentSchemaPath, "_index-"+strconv.Itoa(index))
	return path, schemaPath
}

// TabPaths computes the paths for one tab of a tabs field. Named tabs
// behave like named fields; unnamed tabs like unnamed structural fields.
func TabPaths(t *Tab, parentPath []any, parentSchemaPath []string, index int) (path []any, schemaPath []string) {
	tf := &Field{Name: t.Name}
	return Paths(tf, parentPath, parentSchemaPath, index)
}

// appendPath copies the parent path and appends the given segments.
// Copying keeps sibling fields from sharing backing arrays.
func appendPath(parent []any, segments ...any) []any {
	out := make([]any, len(parent), len(parent)+len(segments))
	copy(out, parent)
	return append(out, segments...)
}

func appendSchemaPath(parent []string, segments ...string) []string {
	out := make([]string, len(parent), len(parent)+len(segments))
	copy(out, parent)
	return append(out, segments...)
}

// PathString renders an instance path in dotted form with bracketed
// indices, e.g. "posts[2].title".
func PathString(path []any) string {
	s := ""
	for i, seg := range path {
		switch v := seg.(type) {
		case string:
			if i > 0 {
				s += "."
			}
			s += v
		case int:
			s += "[" + strconv.Itoa(v) + "]"
		}
	}
	return s
}
