package engine

import (
	"sort"

	"github.com/Veraticus/cartola/internal/model"
)

// CategoryTotal aggregates the transactions of one category.
type CategoryTotal struct {
	Category string `json:"category"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
	Count    int    `json:"count"`
	Total    int64  `json:"total"`
}

// Summary groups the result's transactions by category, largest absolute
// total first. Equal totals keep first-seen order.
func (r *Result) Summary() []CategoryTotal {
	groups := groupByCategory(r.Transactions)
	totals := make([]CategoryTotal, 0, len(groups.order))
	for _, name := range groups.order {
		totals = append(totals, *groups.totals[name])
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return abs(totals[i].Total) > abs(totals[j].Total)
	})
	return totals
}

type categoryGroups struct {
	totals map[string]*CategoryTotal
	order  []string
}

func groupByCategory(txns []model.Transaction) categoryGroups {
	groups := categoryGroups{totals: make(map[string]*CategoryTotal)}
	for _, txn := range txns {
		name := txn.Category
		if name == "" {
			name = model.OtherCategory
		}
		total, ok := groups.totals[name]
		if !ok {
			total = &CategoryTotal{Category: name, Color: txn.CategoryColor, Icon: txn.CategoryIcon}
			groups.totals[name] = total
			groups.order = append(groups.order, name)
		}
		total.Count++
		total.Total += txn.Amount
	}
	return groups
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
