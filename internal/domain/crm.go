package domain

// Lead is a prospective contact fetched from the external CRM. The
// upstream schema is loose: phone may arrive under "phone" or "mobile",
// and stage may be absent entirely (grouped under "Unknown").
type Lead struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Mobile      string `json:"mobile,omitempty"`
	Stage       string `json:"stage"`
	ContactName string `json:"contact_name,omitempty"` // display-only, falls back to Name
}

// ContactPhone returns the primary contact field, tolerating the
// alternate field name used by some CRM exports.
func (l Lead) ContactPhone() string {
	if l.Phone != "" {
		return l.Phone
	}
	return l.Mobile
}

// DisplayName returns the operator-facing name for the lead.
func (l Lead) DisplayName() string {
	if l.ContactName != "" {
		return l.ContactName
	}
	return l.Name
}

// Pipeline is a named, ordered sequence of stage names. The stage order
// becomes the grouping key order when organizing leads.
type Pipeline struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Stages []string `json:"stages"`
}
