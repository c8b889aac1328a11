package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrVerification marks a ranking that breaks the ordering or rank rules,
// or disagrees with the submitted totals.
var ErrVerification = errors.New("ranking verification failed")

// fetchRanking pages through the all-time ranking of kind.
func fetchRanking(ctx context.Context, client *httpClient, kind string, pageSize int) ([]Entry, error) {
	var all []Entry
	for offset := 0; ; {
		q := url.Values{}
		q.Set("range", "all")
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(pageSize))

		var page Page
		if err := client.get(ctx, "/rankings/"+kind+"?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		all = append(all, page.Entries...)
		offset += len(page.Entries)
		if len(page.Entries) == 0 || offset >= page.Total {
			return all, nil
		}
	}
}

// VerifyRanking checks that entries are non-increasing in value and carry
// standard competition ranks: position i (0-based) has rank i+1 unless its
// value equals the previous one, in which case it shares that rank.
func VerifyRanking(entries []Entry) error {
	for i, e := range entries {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first entry has rank %d", ErrVerification, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Value > prev.Value:
			return fmt.Errorf("%w: value rises at position %d (%d > %d)", ErrVerification, i, e.Value, prev.Value)
		case e.Value == prev.Value && e.Rank != prev.Rank:
			return fmt.Errorf("%w: tied entry at position %d has rank %d, want %d", ErrVerification, i, e.Rank, prev.Rank)
		case e.Value < prev.Value && e.Rank != i+1:
			return fmt.Errorf("%w: entry at position %d has rank %d, want %d", ErrVerification, i, e.Rank, i+1)
		}
	}
	return nil
}

// VerifyTotals checks that entries hold exactly the expected value for every
// subject and no others.
func VerifyTotals(entries []Entry, want map[string]uint64) error {
	if len(entries) != len(want) {
		return fmt.Errorf("%w: %d entries, want %d", ErrVerification, len(entries), len(want))
	}
	for _, e := range entries {
		v, ok := want[e.SubjectID]
		if !ok {
			return fmt.Errorf("%w: unexpected subject %s", ErrVerification, e.SubjectID)
		}
		if v != e.Value {
			return fmt.Errorf("%w: subject %s has %d, want %d", ErrVerification, e.SubjectID, e.Value, v)
		}
	}
	return nil
}
