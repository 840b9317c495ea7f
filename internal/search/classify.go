package search

import "strings"

// CategoryRule pairs a category name with the keywords that select it.
// Rules are evaluated in declaration order with first-match-wins, so the
// ordering below is a deliberate disambiguation policy: categories with
// overlapping vocabulary (pets vs. fashion both mention "collar"/"قلاده"
// adjacent terms) must have the more specific one listed first.
type CategoryRule struct {
	Name     string
	Keywords []string
}

// DefaultCategory is returned when no rule matches.
const DefaultCategory = "general"

// categoryRules is the fixed classification table. Keywords mix Persian,
// Turkish, and English because user queries arrive in all three.
var categoryRules = []CategoryRule{
	{
		// pets before fashion: "لباس سگ" (dog clothes) must classify as
		// pets even though it contains the fashion keyword "لباس".
		Name: "pets",
		Keywords: []string{
			"سگ", "گربه", "حیوان خانگی", "قلاده", "پت شاپ",
			"köpek", "kedi", "evcil", "tasma",
			"dog", "cat", "pet",
		},
	},
	{
		Name: "sports",
		Keywords: []string{
			"ورزشی", "کتانی", "دویدن", "بدنسازی", "یوگا", "توپ",
			"spor", "koşu", "fitness", "antrenman",
			"sneaker", "running", "gym", "sport",
		},
	},
	{
		Name: "electronics",
		Keywords: []string{
			"گوشی", "موبایل", "لپ تاپ", "هدفون", "شارژر", "تبلت", "ساعت هوشمند",
			"telefon", "laptop", "kulaklık", "şarj", "tablet",
			"phone", "headphone", "charger", "smartwatch", "earbuds",
		},
	},
	{
		Name: "beauty",
		Keywords: []string{
			"آرایشی", "رژ", "کرم", "عطر", "شامپو", "ماسک صورت",
			"makyaj", "ruj", "krem", "parfüm", "şampuan",
			"makeup", "lipstick", "perfume", "skincare",
		},
	},
	{
		Name: "kids",
		Keywords: []string{
			"کودک", "بچه", "نوزاد", "اسباب بازی",
			"çocuk", "bebek", "oyuncak",
			"baby", "kids", "toy",
		},
	},
	{
		Name: "home",
		Keywords: []string{
			"خانه", "آشپزخانه", "مبل", "فرش", "پرده", "ظرف",
			"ev", "mutfak", "koltuk", "halı", "perde",
			"kitchen", "sofa", "curtain", "decor",
		},
	},
	{
		Name: "fashion",
		Keywords: []string{
			"لباس", "پیراهن", "شلوار", "کفش", "کیف", "مانتو", "تیشرت", "ژاکت",
			"elbise", "gömlek", "pantolon", "ayakkabı", "çanta", "ceket", "tişört",
			"dress", "shirt", "shoes", "bag", "jacket", "jeans",
		},
	},
}

// Classify maps a normalized query to a coarse category by keyword
// containment against the fixed rule table, first match wins. Unmatched
// queries fall into DefaultCategory.
func Classify(query string) string {
	q := strings.ToLower(query)
	for _, rule := range categoryRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(q, kw) {
				return rule.Name
			}
		}
	}
	return DefaultCategory
}

// Categories returns the category names in rule order, with DefaultCategory
// appended. Used by the refresh job to enumerate the classification space
// when the durable store is empty.
func Categories() []string {
	out := make([]string, 0, len(categoryRules)+1)
	for _, r := range categoryRules {
		out = append(out, r.Name)
	}
	return append(out, DefaultCategory)
}
