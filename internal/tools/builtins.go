package tools

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// mock weather table for the demo tool, temperatures in celsius.
var weatherData = map[string]struct {
	Temp      float64
	Condition string
}{
	"san francisco": {22, "sunny"},
	"new york":      {18, "cloudy"},
	"london":        {15, "rainy"},
	"tokyo":         {25, "partly cloudy"},
	"sydney":        {28, "sunny"},
}

// mock knowledge base for the demo search tool.
var knowledgeBase = map[string]map[string]string{
	"programming": {
		"python":           "Python is a high-level programming language known for its simplicity and readability.",
		"javascript":       "JavaScript is a programming language commonly used for web development.",
		"machine learning": "Machine learning is a subset of AI that enables computers to learn without explicit programming.",
	},
	"science": {
		"photosynthesis": "Photosynthesis is the process by which plants convert sunlight into energy.",
		"gravity":        "Gravity is a fundamental force that attracts objects with mass toward each other.",
		"dna":            "DNA is the genetic material that contains instructions for life.",
	},
	"general": {
		"coffee":   "Coffee is a popular caffeinated beverage made from roasted coffee beans.",
		"exercise": "Regular exercise helps maintain physical health and mental well-being.",
		"reading":  "Reading is fundamental for learning and expanding knowledge.",
	},
}

// RegisterBuiltins adds the demonstration tools to the registry. These
// exist so the function-calling example works without any external
// services; replace them with real integrations in your own code.
func RegisterBuiltins(r *Registry) error {
	builtins := []*Tool{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a location",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "The city and state/country, e.g. 'San Francisco, CA'",
					},
					"unit": map[string]any{
						"type":        "string",
						"description": "Temperature unit: 'celsius' or 'fahrenheit'",
					},
				},
				"required": []string{"location"},
			},
			Handler: handleGetWeather,
		},
		{
			Name:        "calculate_math",
			Description: "Evaluate a mathematical expression, e.g. '2 + 3 * 4'",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"expression": map[string]any{
						"type":        "string",
						"description": "Mathematical expression to evaluate",
					},
				},
				"required": []string{"expression"},
			},
			Handler: handleCalculateMath,
		},
		{
			Name:        "generate_random_number",
			Description: "Generate a random number within a specified range",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"min_value": map[string]any{
						"type":        "integer",
						"description": "Minimum value (inclusive, default 1)",
					},
					"max_value": map[string]any{
						"type":        "integer",
						"description": "Maximum value (inclusive, default 100)",
					},
				},
			},
			Handler: handleGenerateRandomNumber,
		},
		{
			Name:        "search_knowledge_base",
			Description: "Search a small knowledge base for information",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Search query",
					},
					"category": map[string]any{
						"type":        "string",
						"description": "Category to search: 'programming', 'science', or 'general'",
					},
				},
				"required": []string{"query"},
			},
			Handler: handleSearchKnowledgeBase,
		},
	}

	for _, t := range builtins {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func handleGetWeather(ctx context.Context, args map[string]any) (string, error) {
	location, _ := args["location"].(string)
	if location == "" {
		return "", fmt.Errorf("location is required")
	}
	unit, _ := args["unit"].(string)

	key := strings.ToLower(strings.TrimSpace(strings.Split(location, ",")[0]))
	data, ok := weatherData[key]
	if !ok {
		return fmt.Sprintf("Sorry, I don't have weather data for %s.", location), nil
	}

	temp := data.Temp
	symbol := "°C"
	if strings.EqualFold(unit, "fahrenheit") {
		temp = temp*9/5 + 32
		symbol = "°F"
	}

	return fmt.Sprintf("The weather in %s is %s with a temperature of %g%s.",
		location, data.Condition, temp, symbol), nil
}

func handleCalculateMath(ctx context.Context, args map[string]any) (string, error) {
	expression, _ := args["expression"].(string)
	if expression == "" {
		return "", fmt.Errorf("expression is required")
	}

	result, err := evalExpression(expression)
	if err != nil {
		return "", fmt.Errorf("error calculating %s: %w", expression, err)
	}
	return fmt.Sprintf("The result of %s is %g", expression, result), nil
}

func handleGenerateRandomNumber(ctx context.Context, args map[string]any) (string, error) {
	minVal, maxVal := 1, 100
	if v, ok := args["min_value"].(float64); ok {
		minVal = int(v)
	}
	if v, ok := args["max_value"].(float64); ok {
		maxVal = int(v)
	}
	if minVal > maxVal {
		minVal, maxVal = maxVal, minVal
	}

	n := minVal + rand.Intn(maxVal-minVal+1)
	return fmt.Sprintf("Random number between %d and %d: %d", minVal, maxVal, n), nil
}

func handleSearchKnowledgeBase(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	category, _ := args["category"].(string)

	entries, ok := knowledgeBase[category]
	if !ok {
		category = "general"
		entries = knowledgeBase[category]
	}

	queryLower := strings.ToLower(query)
	var matches []string
	for key, value := range entries {
		if strings.Contains(key, queryLower) || strings.Contains(queryLower, key) {
			matches = append(matches, fmt.Sprintf("%s: %s", titleCase(key), value))
		}
	}
	sort.Strings(matches)

	if len(matches) == 0 {
		return fmt.Sprintf("No results found for %q in %s category.", query, category), nil
	}
	return fmt.Sprintf("Found %d result(s) in %s:\n%s",
		len(matches), category, strings.Join(matches, "\n")), nil
}

// titleCase capitalizes the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
