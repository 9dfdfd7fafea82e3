package domain

// Layout is the root page document: a fixed header and footer around an
// ordered, keyed collection of body sections.
type Layout struct {
	Type     string        `json:"type,omitempty"`
	Settings *SiteSettings `json:"settings,omitempty"`
	Sections Sections      `json:"sections"`
	Order    []string      `json:"order,omitempty"`
}

// SiteSettings holds page-wide typography and colours.
type SiteSettings struct {
	FontFamily  string       `json:"fontFamily,omitempty"`
	ColorSchema *ColorSchema `json:"colorSchema,omitempty"`
}

type ColorSchema struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Text      string `json:"text,omitempty"`
}

type Sections struct {
	SectionHeader *Section `json:"sectionHeader,omitempty"`
	Children      Children `json:"children"`
	SectionFooter *Section `json:"sectionFooter,omitempty"`
}

// Children is the ordered body of a page. Order holds the same identifiers
// as the Type fields of Sections; it decides display order.
type Children struct {
	Type     string    `json:"type,omitempty"`
	MetaData *MetaData `json:"metaData,omitempty"`
	Sections []Section `json:"sections"`
	Order    []string  `json:"order"`
}

type MetaData struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Section is one visual block of a page. Type is its unique identifier
// (e.g. "Banner-1a2b3c4d"); Setting holds spacing and background values and
// Blocks the variant-specific content.
type Section struct {
	Type    string         `json:"type"`
	Setting map[string]any `json:"setting,omitempty"`
	Blocks  map[string]any `json:"blocks,omitempty"`
}

// Well-known keys for the singleton sections.
const (
	SectionHeaderKey = "sectionHeader"
	SectionFooterKey = "sectionFooter"
)

// HomeRoute is the route whose header and footer are shared by every page.
const HomeRoute = "home"

// NewRouteLayout returns the content a freshly created route starts with.
func NewRouteLayout(route string) *Layout {
	return &Layout{
		Sections: Sections{
			Children: Children{
				Type: route,
				MetaData: &MetaData{
					Title:       route,
					Description: route,
				},
				Sections: []Section{},
				Order:    []string{},
			},
		},
	}
}

// EmptyLayout returns a layout with no sections.
func EmptyLayout() *Layout {
	return &Layout{
		Sections: Sections{
			Children: Children{
				Sections: []Section{},
				Order:    []string{},
			},
		},
	}
}
