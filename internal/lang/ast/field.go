package ast

// FieldKind distinguishes attribute references from pseudo-fields.
type FieldKind int

const (
	FieldAttr FieldKind = iota
	FieldBody
	FieldTag
	FieldHTML
	FieldMarkdown
)

// Pseudo-field names as written in source.
const (
	PseudoBody     = "body"
	PseudoTag      = "tag"
	PseudoHTML     = "html"
	PseudoMarkdown = "markdown"
)

var pseudo = map[string]FieldKind{
	PseudoBody:     FieldBody,
	PseudoTag:      FieldTag,
	PseudoHTML:     FieldHTML,
	PseudoMarkdown: FieldMarkdown,
}

// Field is an extraction or comparison target.
type Field struct {
	Kind FieldKind
	// Name is the attribute name for FieldAttr, the pseudo-field name otherwise.
	Name string
}

// Attr returns an attribute field.
func Attr(name string) Field { return Field{Kind: FieldAttr, Name: name} }

// Pseudo looks up a pseudo-field by its source name.
func Pseudo(name string) (Field, bool) {
	k, ok := pseudo[name]
	if !ok {
		return Field{}, false
	}
	return Field{Kind: k, Name: name}, true
}

// Body is the normalized text content pseudo-field.
var Body = Field{Kind: FieldBody, Name: PseudoBody}

// Key is the record column the field is extracted into.
func (f Field) Key() string { return f.Name }

func (f Field) String() string {
	if f.Kind == FieldAttr {
		return "@" + f.Name
	}
	return f.Name
}
