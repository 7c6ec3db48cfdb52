package chat

// ExampleGroup is a themed list of sample questions.
type ExampleGroup struct {
	Title     string   `json:"title"`
	Icon      string   `json:"icon"`
	Questions []string `json:"questions"`
}

// Examples returns the sample questions shown to new users.
func Examples() []ExampleGroup {
	return []ExampleGroup{
		{
			Title: "Sales Queries",
			Icon:  "💰",
			Questions: []string{
				"What were total sales for Lays in January 2024?",
				"Show me sales for Neo in 2024",
				"Total sales in February 2025",
			},
		},
		{
			Title: "Active Stores",
			Icon:  "🏪",
			Questions: []string{
				"How many active stores did Delphy have in 2024?",
				"Active stores for Coke in January 2024",
				"Show me store count for Titz",
			},
		},
		{
			Title: "Comparisons",
			Icon:  "📈",
			Questions: []string{
				"Compare sales between 2024 and 2025",
				"Year over year sales growth",
				"Show me YoY comparison for Solerone",
			},
		},
		{
			Title: "Rankings",
			Icon:  "🏆",
			Questions: []string{
				"Show me top 5 brands by sales",
				"Top 3 brands by active stores",
				"Which brands have the highest sales?",
			},
		},
	}
}
