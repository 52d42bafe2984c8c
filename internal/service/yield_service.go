package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"agro-service/internal/model"
)

var yieldColumnAliases = []string{"yield", "yield_t_ha", "yield_kg_ha"}

// ParseYieldCSV reads a harvest table with a header row. The header must name a year
// column and one of the yield columns; crop is optional. Rows whose year or yield is
// not a number are dropped.
func ParseYieldCSV(r io.Reader) ([]model.YieldEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: csv must include a header and at least one row", ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: read csv header: %v", ErrInvalidInput, err)
	}

	columns := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if _, seen := columns[h]; !seen {
			columns[h] = i
		}
	}
	findAny := func(keys ...string) int {
		for _, k := range keys {
			if idx, ok := columns[k]; ok {
				return idx
			}
		}
		return -1
	}

	colYear := findAny("year")
	colYield := findAny(yieldColumnAliases...)
	colCrop := findAny("crop")
	if colYear == -1 || colYield == -1 {
		return nil, fmt.Errorf("%w: csv headers must include 'year' and 'yield'", ErrInvalidInput)
	}

	entries := []model.YieldEntry{}
	rows := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: read csv: %v", ErrInvalidInput, err)
		}
		if blankRecord(rec) {
			continue
		}
		rows++

		year, ok := parseYear(cell(rec, colYear))
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(cell(rec, colYield), 64)
		if err != nil || !isFinite(value) {
			continue
		}
		entry := model.YieldEntry{Year: year, Yield: value}
		if colCrop != -1 {
			entry.Crop = cell(rec, colCrop)
		}
		entries = append(entries, entry)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: csv must include a header and at least one row", ErrInvalidInput)
	}
	return entries, nil
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseYear(raw string) (int, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !isFinite(v) || v != math.Trunc(v) || v <= 0 {
		return 0, false
	}
	return int(v), true
}

// SummarizeYield counts the entries and finds the year range.
func SummarizeYield(entries []model.YieldEntry, now time.Time) model.YieldSummary {
	summary := model.YieldSummary{Entries: len(entries), UpdatedAt: now}
	for _, e := range entries {
		year := e.Year
		if summary.EarliestYear == nil || year < *summary.EarliestYear {
			summary.EarliestYear = &year
		}
		if summary.LatestYear == nil || year > *summary.LatestYear {
			latest := year
			summary.LatestYear = &latest
		}
	}
	return summary
}

type YieldService struct {
	store YieldStore
	now   func() time.Time
}

func NewYieldService(store YieldStore) *YieldService {
	return &YieldService{store: store, now: time.Now}
}

func (s *YieldService) ImportCSV(ctx context.Context, farmID string, r io.Reader) (*model.YieldHistory, error) {
	farmID = strings.TrimSpace(farmID)
	if err := validateFarmID(farmID); err != nil {
		return nil, err
	}
	entries, err := ParseYieldCSV(r)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, farmID, entries)
}

// Import replaces the farm's yield history. Entries without a positive year or a finite
// yield are dropped. A store failure returns the history with an error wrapping
// ErrPersistenceFailure.
func (s *YieldService) Import(ctx context.Context, farmID string, entries []model.YieldEntry) (*model.YieldHistory, error) {
	farmID = strings.TrimSpace(farmID)
	if err := validateFarmID(farmID); err != nil {
		return nil, err
	}

	kept := make([]model.YieldEntry, 0, len(entries))
	for _, e := range entries {
		if e.Year <= 0 || !isFinite(e.Yield) {
			continue
		}
		e.Crop = strings.TrimSpace(e.Crop)
		kept = append(kept, e)
	}

	history := &model.YieldHistory{
		FarmID:  farmID,
		Summary: datatypes.NewJSONType(SummarizeYield(kept, s.now().UTC())),
		Entries: datatypes.JSONSlice[model.YieldEntry](kept),
	}
	if err := s.store.Upsert(ctx, history); err != nil {
		return history, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return history, nil
}

func (s *YieldService) Latest(ctx context.Context, farmID string) (*model.YieldHistory, error) {
	farmID = strings.TrimSpace(farmID)
	if err := validateFarmID(farmID); err != nil {
		return nil, err
	}
	history, err := s.store.Get(ctx, farmID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, ErrNotFound
	}
	return history, nil
}
