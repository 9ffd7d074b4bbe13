package tool

import (
	"regexp"
	"strconv"
	"strings"
)

// NutritionEstimate is a rough per-serving read of one menu description.
type NutritionEstimate struct {
	Name     string   `json:"name"`
	Calories int      `json:"calories,omitempty"`
	SodiumMg int      `json:"sodium_mg,omitempty"`
	SugarG   int      `json:"sugar_g,omitempty"`
	Protein  int      `json:"protein_g,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

var (
	caloriePattern = regexp.MustCompile(`(\d+)\s*(?:kcal|칼로리)`)
	sodiumPattern  = regexp.MustCompile(`나트륨\s*(\d+)\s*mg`)
	sugarPattern   = regexp.MustCompile(`당(?:류)?\s*(\d+)\s*g`)
	proteinPattern = regexp.MustCompile(`단백질\s*(\d+)\s*g`)
)

// EstimateNutrition parses whatever nutrition figures appear in the
// description text and derives dietary tags from them. Missing figures
// stay zero rather than being guessed.
func EstimateNutrition(name, description string) NutritionEstimate {
	est := NutritionEstimate{Name: strings.TrimSpace(name)}
	est.Calories = firstInt(caloriePattern, description)
	est.SodiumMg = firstInt(sodiumPattern, description)
	est.SugarG = firstInt(sugarPattern, description)
	est.Protein = firstInt(proteinPattern, description)

	if est.SodiumMg > 0 && est.SodiumMg <= 600 {
		est.Tags = append(est.Tags, "저염")
	}
	if est.SugarG > 0 && est.SugarG <= 5 {
		est.Tags = append(est.Tags, "저당")
	}
	if est.Protein >= 20 {
		est.Tags = append(est.Tags, "단백질")
	}
	if est.Calories > 0 && est.Calories <= 400 {
		est.Tags = append(est.Tags, "가벼운 식사")
	}
	return est
}

func firstInt(pattern *regexp.Regexp, text string) int {
	match := pattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return n
}
