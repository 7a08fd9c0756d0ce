package usecase

import "github.com/dustin/go-humanize"

// CostEstimate is a pure-function cost report over the catalog's current
// byte count and the pricing config (§12). It never gates MIRROR/FORCE/
// DELETE/REPACK decisions — it is reporting only.
type CostEstimate struct {
	TotalBytes       int64
	MonthlyStorage   float64
	EstimatedPutCost float64
	HumanReadable    string
}

// EstimateCost computes the estimated monthly Deep Archive storage cost
// plus the one-time PUT cost already incurred, from the catalog's total
// byte count and the pricing config.
func EstimateCost(cat *Catalog, pricing PricingConfig) CostEstimate {
	var totalBytes int64
	var putCount int

	for _, entry := range cat.Branches {
		for _, leaf := range entry.Leaves {
			totalBytes += leaf.SizeBytes
			if leaf.ObjectKey != "" {
				putCount++
			}
		}
	}

	gib := float64(totalBytes) / (1 << 30)
	monthly := gib * pricing.PricePerGBMonth
	putCost := float64(putCount) * pricing.PutRequestPrice

	return CostEstimate{
		TotalBytes:       totalBytes,
		MonthlyStorage:   monthly,
		EstimatedPutCost: putCost,
		HumanReadable:    humanize.Bytes(uint64(totalBytes)),
	}
}
