// =============================================================================
// Material Stock Control - Reconciler
// =============================================================================
//
// This module outer-joins the aggregated stock records with the reference
// catalog and produces the canonical record set.
//
// FILL RULES (per material code in either input):
//
//   | Field       | Source                                              |
//   |-------------|-----------------------------------------------------|
//   | description | stock if non-empty, else reference, else ""         |
//   | balance     | stock total if the code was exported, else 0        |
//   | unit        | stock unit if non-empty, else "UN"                  |
//   | mrp, class  | reference if non-empty, else ""                     |
//
// The generation timestamp is supplied by the caller and shared by the whole
// batch. Neither input is modified.
//
// =============================================================================

package reconciler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/material-stock-control/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// SortKey selects the display order of the canonical set.
type SortKey string

const (
	// SortByDescription orders by description text (ordinal, case sensitive).
	SortByDescription SortKey = "description"

	// SortByCode orders by material code.
	SortByCode SortKey = "code"
)

// ParseSortKey converts a configuration value to a SortKey.
func ParseSortKey(value string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "description", "descricao":
		return SortByDescription, nil
	case "code", "nm":
		return SortByCode, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", value)
	}
}

// Options controls a reconciliation.
type Options struct {
	// GeneratedAt is stamped on every record of the batch.
	GeneratedAt time.Time

	// SortBy is the display key. Zero value means SortByDescription.
	SortBy SortKey
}

// Stats counts how the two inputs overlapped.
type Stats struct {
	// Matched is the number of codes present in both inputs.
	Matched int

	// StockOnly is the number of codes present only in the export.
	StockOnly int

	// ReferenceOnly is the number of codes present only in the catalog.
	ReferenceOnly int

	// DuplicateReferences counts catalog rows ignored because an earlier row
	// had the same code.
	DuplicateReferences int
}

// Total returns the number of canonical records produced.
func (s Stats) Total() int {
	return s.Matched + s.StockOnly + s.ReferenceOnly
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Reconcile joins stock and refs and returns the sorted canonical set.
//
// PARAMETERS:
//   - stock: The Block Parser output keyed by material code.
//   - refs: The reference catalog rows. Duplicate codes: the first row wins.
//   - opts: The batch timestamp and sort key.
//
// RETURNS:
//   - One CanonicalRecord per code appearing in either input.
func Reconcile(stock map[types.MaterialCode]types.StockRecord, refs []types.ReferenceRecord, opts Options) []types.CanonicalRecord {
	records, _ := ReconcileWithStats(stock, refs, opts)
	return records
}

// ReconcileWithStats is Reconcile plus join statistics.
func ReconcileWithStats(stock map[types.MaterialCode]types.StockRecord, refs []types.ReferenceRecord, opts Options) ([]types.CanonicalRecord, Stats) {
	var stats Stats

	// Index both sides by the canonical key form.
	stockByCode := make(map[types.MaterialCode]types.StockRecord, len(stock))
	for code, rec := range stock {
		stockByCode[types.NormalizeCode(string(code))] = rec
	}

	refByCode := make(map[types.MaterialCode]types.ReferenceRecord, len(refs))
	refOrder := make([]types.MaterialCode, 0, len(refs))
	for _, ref := range refs {
		code := types.NormalizeCode(string(ref.Code))
		if _, seen := refByCode[code]; seen {
			stats.DuplicateReferences++
			continue
		}
		refByCode[code] = ref
		refOrder = append(refOrder, code)
	}

	records := make([]types.CanonicalRecord, 0, len(stockByCode)+len(refByCode))

	for code, st := range stockByCode {
		ref, matched := refByCode[code]
		if matched {
			stats.Matched++
		} else {
			stats.StockOnly++
		}
		records = append(records, buildRecord(code, &st, refPtr(ref, matched), opts.GeneratedAt))
	}

	for _, code := range refOrder {
		if _, inStock := stockByCode[code]; inStock {
			continue
		}
		ref := refByCode[code]
		stats.ReferenceOnly++
		records = append(records, buildRecord(code, nil, &ref, opts.GeneratedAt))
	}

	sortRecords(records, opts.SortBy)

	return records, stats
}

// buildRecord applies the fill rules. Either side may be nil, not both.
func buildRecord(code types.MaterialCode, st *types.StockRecord, ref *types.ReferenceRecord, generatedAt time.Time) types.CanonicalRecord {
	rec := types.CanonicalRecord{
		Code:        code,
		Balance:     decimal.Zero,
		Unit:        types.DefaultUnit,
		GeneratedAt: generatedAt,
	}

	if st != nil {
		rec.Description = st.Description
		rec.Balance = st.TotalBalance
		if st.Unit != "" {
			rec.Unit = st.Unit
		}
	}

	if ref != nil {
		if rec.Description == "" {
			rec.Description = ref.Description
		}
		rec.MRP = ref.MRP
		rec.Class = ref.Class
	}

	return rec
}

func refPtr(ref types.ReferenceRecord, ok bool) *types.ReferenceRecord {
	if !ok {
		return nil
	}
	return &ref
}

// sortRecords orders records by key. Ties fall back to the code so the output
// does not depend on map iteration order.
func sortRecords(records []types.CanonicalRecord, key SortKey) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if key != SortByCode && a.Description != b.Description {
			return a.Description < b.Description
		}
		return a.Code < b.Code
	})
}
