// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package models

import (
	"sort"
	"time"
)

// CustomList is a user-named collection of recommendations, unique by title.
type CustomList struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Items     []Recommendation `json:"items"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Clone returns a deep copy of the list.
func (l CustomList) Clone() CustomList {
	l.Items = CloneRecommendations(l.Items)
	return l
}

// CloneLists deep-copies lists, never returning nil.
func CloneLists(lists []CustomList) []CustomList {
	out := make([]CustomList, len(lists))
	for i := range lists {
		out[i] = lists[i].Clone()
	}
	return out
}

// SortListsNewestFirst sorts lists by CreatedAt descending, in place.
func SortListsNewestFirst(lists []CustomList) {
	sort.SliceStable(lists, func(i, j int) bool {
		return lists[i].CreatedAt.After(lists[j].CreatedAt)
	})
}
