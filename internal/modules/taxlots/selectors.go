package taxlots

import "sort"

// LotSelector reorders a holding's lots into liquidation priority: the
// first element is the first lot to sell from. Selectors return a new
// slice holding a permutation of the input and never modify it.
type LotSelector func([]TaxLot) []TaxLot

// FIFO orders lots by purchase date, oldest first.
func FIFO(lots []TaxLot) []TaxLot {
	out := cloneLots(lots)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PurchaseDate.Before(out[j].PurchaseDate)
	})
	return out
}

// LIFO orders lots by purchase date, newest first.
func LIFO(lots []TaxLot) []TaxLot {
	out := cloneLots(lots)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PurchaseDate.After(out[j].PurchaseDate)
	})
	return out
}

// HighestCostFirst orders lots by per-share cost basis, highest first.
// Selling high-basis lots first minimizes realized gains, the usual
// tax-loss-harvesting heuristic.
func HighestCostFirst(lots []TaxLot) []TaxLot {
	out := cloneLots(lots)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CostBasis > out[j].CostBasis
	})
	return out
}

// SelectorByName resolves a selector from its wire name. Unknown names
// fall back to FIFO, matching the config default.
func SelectorByName(name string) LotSelector {
	switch name {
	case "lifo":
		return LIFO
	case "highest_cost_first":
		return HighestCostFirst
	default:
		return FIFO
	}
}

func cloneLots(lots []TaxLot) []TaxLot {
	out := make([]TaxLot, len(lots))
	copy(out, lots)
	return out
}
