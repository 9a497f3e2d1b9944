package models

// ItemPatch is a sparse update: a nil slot leaves the column untouched.
type ItemPatch struct {
	Title       *Title
	Description *Description
	Completed   *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Fields lists the attributes the patch sets, by JSON name.
func (p ItemPatch) Fields() []string {
	var out []string
	if p.Title != nil {
		out = append(out, "title")
	}
	if p.Description != nil {
		out = append(out, "description")
	}
	if p.Completed != nil {
		out = append(out, "completed")
	}
	return out
}
