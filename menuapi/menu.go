package menuapi

// Menu is the daily menu document.
type Menu struct {
	Date          string `json:"date"`
	Day           string `json:"day"`
	TotalCalories int    `json:"total_calories"`
	Items         []Item `json:"items"`
}

// Item is one dish. Calories is null when unknown.
type Item struct {
	Name     string `json:"name"`
	Calories *int   `json:"calories"`
}

func kcal(n int) *int { return &n }

// DefaultMenu returns the hardcoded menu served by the local API.
func DefaultMenu() Menu {
	return Menu{
		Date:          "03.09.2025",
		Day:           "Wednesday",
		TotalCalories: 1472,
		Items: []Item{
			{Name: "Lentil soup", Calories: kcal(125)},
			{Name: "Chicken", Calories: kcal(277)},
			{Name: "Eggplant", Calories: kcal(235)},
			{Name: "Rice", Calories: kcal(328)},
			{Name: "Dessert", Calories: kcal(511)},
			{Name: "Fruits"},
			{Name: "Salads"},
		},
	}
}
