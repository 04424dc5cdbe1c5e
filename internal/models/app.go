// Package models defines the domain types for launchpad.
package models

// Icon background labels understood by the launcher page. The set is not
// closed: unknown labels are stored as-is and rendered as neutral.
const (
	IconBgPrimary   = "primary"
	IconBgSecondary = "secondary"
	IconBgAccent    = "accent"
	IconBgNeutral   = "neutral"
)

// AppEntry is one launchable application.
type AppEntry struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription"`
	LongDescription  string `json:"longDescription"`
	Icon             string `json:"icon"`
	URL              string `json:"url"`
	IconBg           string `json:"iconBg"`
}

// AppsDocument is the whole persisted catalog. Apps order is display order.
type AppsDocument struct {
	Apps []AppEntry `json:"apps"`
}

// Index returns the position of the entry with the given id, or -1.
func (d AppsDocument) Index(id string) int {
	for i, a := range d.Apps {
		if a.ID == id {
			return i
		}
	}
	return -1
}
