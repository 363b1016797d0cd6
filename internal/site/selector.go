// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package site

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/netSkope/spo-retention-tool/internal/console"
	"go.uber.org/zap"
)

// ErrCancelled is returned when the operator aborts a selection with "q" or
// when there is nothing to select from.
var ErrCancelled = errors.New("selection cancelled")

// Selector resolves free-text operator input into a set of site records.
type Selector struct {
	console *console.Console
	logger  *zap.Logger
}

// NewSelector creates a Selector reading input through the given console.
func NewSelector(cons *console.Console, logger *zap.Logger) *Selector {
	return &Selector{console: cons, logger: logger}
}

// Select presents records as a numbered list and resolves one line of
// comma-separated tokens: ordinals, URL fragments or name fragments.
// "q" cancels, "all" selects everything. A failed token rejects the whole
// selection; nothing is ever partially applied. The resolved set is echoed
// and confirmed before it is returned.
func (s *Selector) Select(records []Record) ([]Record, error) {
	if len(records) == 0 {
		s.console.Warnf("No sites found.")
		return nil, ErrCancelled
	}

	for {
		s.printList(records)

		line, err := s.console.ReadLine("Select sites (numbers, names or URL fragments, comma-separated; 'all' or 'q'): ")
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(line) {
		case "q":
			return nil, ErrCancelled
		case "all":
			selected := make([]Record, len(records))
			copy(selected, records)
			if ok, err := s.confirm(selected); err != nil {
				return nil, err
			} else if ok {
				return selected, nil
			}
			continue
		}

		selected, invalid, err := s.resolveLine(line, records)
		if err != nil {
			return nil, err
		}

		if len(invalid) > 0 {
			s.console.Errorf("Invalid selection token(s): %s", strings.Join(invalid, ", "))
			continue
		}
		if len(selected) == 0 {
			s.console.Errorf("Nothing selected.")
			continue
		}

		if ok, err := s.confirm(selected); err != nil {
			return nil, err
		} else if ok {
			return selected, nil
		}
	}
}

// resolveLine resolves every comma-separated token independently and
// deduplicates the result by URL. It returns the tokens that failed; callers
// must reject the whole line when any token is invalid.
func (s *Selector) resolveLine(line string, records []Record) (selected []Record, invalid []string, err error) {
	seen := make(map[string]bool)

	for _, raw := range strings.Split(line, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}

		rec, ok, err := s.resolveToken(token, records)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			invalid = append(invalid, token)
			continue
		}

		if !seen[rec.URL] {
			seen[rec.URL] = true
			selected = append(selected, rec)
		}
	}

	return selected, invalid, nil
}

// resolveToken maps one token to exactly one record. Ordinals are matched by
// 1-based list position; anything else is normalized and matched against the
// record keys. Multiple matches trigger a single ordinal disambiguation
// prompt scoped to the matching subset; an invalid sub-reply invalidates the
// token rather than re-prompting.
func (s *Selector) resolveToken(token string, records []Record) (Record, bool, error) {
	if n, err := strconv.Atoi(token); err == nil {
		if n < 1 || n > len(records) {
			return Record{}, false, nil
		}
		return records[n-1], true, nil
	}

	normalized := Normalize(token)
	var matches []Record
	for _, rec := range records {
		if rec.Matches(normalized) {
			matches = append(matches, rec)
		}
	}

	switch len(matches) {
	case 0:
		if hint := s.suggest(token, records); hint != "" {
			s.console.Warnf("No site matches %q (did you mean %q?)", token, hint)
		}
		return Record{}, false, nil
	case 1:
		return matches[0], true, nil
	}

	s.console.Printf("Token %q matches %d sites:\n", token, len(matches))
	s.printList(matches)

	reply, err := s.console.ReadLine(fmt.Sprintf("Pick one (1-%d): ", len(matches)))
	if err != nil {
		return Record{}, false, err
	}
	n, err := strconv.Atoi(reply)
	if err != nil || n < 1 || n > len(matches) {
		return Record{}, false, nil
	}
	return matches[n-1], true, nil
}

func (s *Selector) confirm(selected []Record) (bool, error) {
	s.console.Printf("Selected %d site(s):\n", len(selected))
	for _, rec := range selected {
		s.console.Printf("  %s (%s)\n", rec.Title, rec.URL)
	}

	ok, err := s.console.Confirm("Proceed with these sites?")
	if err != nil {
		return false, err
	}
	if !ok {
		s.console.Warnf("Selection discarded.")
	}
	return ok, nil
}

func (s *Selector) printList(records []Record) {
	for i, rec := range records {
		s.console.Printf("%3d. %s  %s\n", i+1, rec.Title, rec.URL)
	}
}

// suggest returns the closest site title for a token that matched nothing.
func (s *Selector) suggest(token string, records []Record) string {
	titles := make([]string, len(records))
	for i, rec := range records {
		titles[i] = rec.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(token, titles)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}
