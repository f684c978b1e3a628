package model

// OtherCategory is the reserved fallback category. It always exists and is
// never scored by keyword.
const OtherCategory = "Otros"

// Neutral presentation values for categories without their own.
const (
	DefaultCategoryColor = "#9E9E9E"
	DefaultCategoryIcon  = "📦"
)

// CategoryDefinition describes one category of the taxonomy.
type CategoryDefinition struct {
	Name        string   `yaml:"-" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Color       string   `yaml:"color" json:"color"`
	Icon        string   `yaml:"icon" json:"icon"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
	Examples    []string `yaml:"examples" json:"examples"`
}

// IsReserved reports whether the category is the reserved fallback.
func (c *CategoryDefinition) IsReserved() bool {
	return c.Name == OtherCategory
}

// Presentation returns the color and icon, falling back to neutral values.
func (c *CategoryDefinition) Presentation() (color, icon string) {
	color, icon = c.Color, c.Icon
	if color == "" {
		color = DefaultCategoryColor
	}
	if icon == "" {
		icon = DefaultCategoryIcon
	}
	return color, icon
}
