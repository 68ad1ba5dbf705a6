// Package plans содержит статические таблицы тарифов: стоимость AI-функций
// в кредитах, месячные квоты кредитов и потолки AI-операций по планам.
package plans

// FeatureCosts стоимость функций в кредитах за один вызов.
var FeatureCosts = map[string]int{
	"audit":                   10,
	"caption":                 1,
	"hashtags":                1,
	"content_ideas":           2,
	"hooks":                   1,
	"growth_plan":             15,
	"competitor_analysis":     5,
	"dm_reply":                1,
	"posting_recommendations": 3,
	"ab_test":                 2,
}

// CreditAllowances месячная квота кредитов по тарифным планам.
var CreditAllowances = map[string]int{
	"free":       5,
	"starter":    10,
	"pro":        100,
	"agency":     500,
	"enterprise": 2000,
}

// UsageLimits месячный потолок AI-операций по тарифным планам.
var UsageLimits = map[string]int{
	"free":       5,
	"starter":    10,
	"pro":        100,
	"agency":     500,
	"enterprise": 2000,
}

const (
	// DefaultPlan план по умолчанию для неизвестного тарифа.
	DefaultPlan = "starter"
	// DefaultFeatureCost стоимость неизвестной функции.
	DefaultFeatureCost = 1
)

// Cost возвращает стоимость функции в кредитах, для неизвестной функции — 1.
func Cost(feature string) int {
	if cost, ok := FeatureCosts[feature]; ok {
		return cost
	}
	return DefaultFeatureCost
}

// Allowance возвращает месячную квоту кредитов для плана,
// для неизвестного плана — квоту плана по умолчанию.
func Allowance(plan string) int {
	if total, ok := CreditAllowances[plan]; ok {
		return total
	}
	return CreditAllowances[DefaultPlan]
}

// UsageLimit возвращает потолок AI-операций для плана,
// для неизвестного плана — потолок плана по умолчанию.
func UsageLimit(plan string) int {
	if limit, ok := UsageLimits[plan]; ok {
		return limit
	}
	return UsageLimits[DefaultPlan]
}
