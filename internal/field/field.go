package field

import (
	"context"

	request "github.com/quillcms/quill/internal/request"
)

// Type identifies a field's category. The set is closed: the read
// pipeline switches exhaustively over it.
type Type string

const (
	TypeText     Type = "text"
	TypeTextarea Type = "textarea"
	TypeEmail    Type = "email"
	TypeCode     Type = "code"
	TypeNumber   Type = "number"
	TypeCheckbox Type = "checkbox"
	TypeDate     Type = "date"
	TypeSelect   Type = "select"
	TypeJSON     Type = "json"
	TypePoint    Type = "point"

	TypeRelationship Type = "relationship"
	TypeUpload       Type = "upload"
	TypeJoin         Type = "join"

	TypeRichText    Type = "richText"
	TypeGroup       Type = "group"
	TypeArray       Type = "array"
	TypeBlocks      Type = "blocks"
	TypeRow         Type = "row"
	TypeCollapsible Type = "collapsible"
	TypeTabs        Type = "tabs"
)

// Field describes one document attribute: its type, localization and
// visibility flags, after-read hooks, read access rule, default value,
// and, for container types, the nested schema.
//
// Field values are treated as immutable once a collection is registered.
type Field struct {
	Name      string
	Type      Type
	Localized bool
	Hidden    bool

	// AfterRead hooks run in declaration order during document reads.
	AfterRead []Hook

	// ReadAccess, when set, gates the field's value per request.
	ReadAccess Access

	// DefaultValue is assigned when a read leaves the field absent.
	// DefaultFunc takes precedence when both are set.
	DefaultValue any
	DefaultFunc  DefaultFunc

	// Fields holds the nested schema for group, array, row and
	// collapsible fields.
	Fields []*Field

	// Blocks holds the named sub-schemas for blocks fields, selected per
	// element by its discriminator tag.
	Blocks []*Block

	// Tabs holds the tab definitions for tabs fields.
	Tabs []*Tab

	// Editor carries the rich-text editor integration. It must hold a
	// RichTextAdapter at read time; a bare AdapterFactory indicates the
	// collection was never finalized and is a configuration error.
	Editor any

	// RelationTo names the target collection(s) for relationship, upload
	// and join fields. More than one entry makes the field polymorphic:
	// stored values then carry a {relationTo, value} envelope.
	RelationTo []string

	// HasMany marks relationship fields whose stored value is a list.
	HasMany bool
}

// Block is one named sub-schema of a blocks field. Stored elements select
// it via their "blockType" discriminator.
type Block struct {
	Slug   string
	Fields []*Field
}

// Tab is a single tab of a tabs field. Named tabs nest their fields under
// the tab name; unnamed tabs are transparent.
type Tab struct {
	Name   string
	Fields []*Field
}

// BlockTypeKey is the discriminator key on blocks elements.
const BlockTypeKey = "blockType"

// HookArgs is the per-invocation context passed to after-read hooks.
type HookArgs struct {
	// Doc is the full document the read started from.
	Doc map[string]any
	// SiblingDoc holds the values of all fields at this nesting level.
	SiblingDoc map[string]any
	// Value is the field's current value (a single locale's value when
	// flattening was applied, a locale map during per-locale fan-out).
	Value any
	Field *Field

	Path       []any
	SchemaPath []string
	Locale     string

	Depth        int
	CurrentDepth int
	Draft        bool

	// Operation is always "read" in this pipeline.
	Operation string

	OverrideAccess   bool
	ShowHiddenFields bool

	Req *request.Context
}

// Hook transforms a field value during reads. Returning Unchanged leaves
// the stored value as it was; any other return value (including nil) is
// written back.
type Hook func(ctx context.Context, args HookArgs) (any, error)

type unchangedMarker struct{}

// Unchanged is the sentinel a Hook returns to signal it made no
// modification.
var Unchanged any = unchangedMarker{}

// AccessArgs is the context passed to a field read-access rule.
type AccessArgs struct {
	// ID is the document's id, when present.
	ID         any
	Doc        map[string]any
	SiblingDoc map[string]any
	Req        *request.Context
}

// Access decides whether the requesting user may read a field. A false
// result redacts the field; an error aborts the read.
type Access func(ctx context.Context, args AccessArgs) (bool, error)

// DefaultFunc computes a field default from the acting user and locale.
type DefaultFunc func(ctx context.Context, user any, locale string) (any, error)

// RichTextAdapter is the resolved editor integration of a richText field.
// The read pipeline treats the editor's document model as opaque and only
// runs the adapter's own after-read chain.
type RichTextAdapter interface {
	AfterRead() []Hook
}

// AdapterFactory builds a RichTextAdapter once collection configuration
// is known. Factories must be resolved before a collection is served;
// encountering one during a read is a configuration error.
type AdapterFactory func() RichTextAdapter

// AffectsData reports whether f owns a slot in its sibling container.
// Structural fields (row, collapsible, tabs) and unnamed fields do not.
func AffectsData(f *Field) bool {
	switch f.Type {
	case TypeRow, TypeCollapsible, TypeTabs:
		return false
	}
	return f.Name != ""
}

// IsTextLike reports whether empty strings count as "missing" for
// fallback-locale substitution.
func IsTextLike(t Type) bool {
	switch t {
	case TypeText, TypeTextarea, TypeEmail, TypeCode:
		return true
	}
	return false
}

// IsReference reports whether f stores ids that population resolves into
// documents.
func IsReference(f *Field) bool {
	switch f.Type {
	case TypeRelationship, TypeUpload, TypeJoin:
		return true
	}
	return false
}

// Polymorphic reports whether f relates to more than one collection.
func (f *Field) Polymorphic() bool { return len(f.RelationTo) > 1 }
