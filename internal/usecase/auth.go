package usecase

import (
	"strconv"
	"strings"
)

// Authorizer is the access gate in front of every interaction.
type Authorizer interface {
	Allowed(userID int64) bool
}

// AllowList allows exactly the listed user ids. An empty list allows nobody.
type AllowList map[int64]struct{}

// ParseAllowList reads comma separated ids; junk entries are skipped.
func ParseAllowList(raw string) AllowList {
	ids := AllowList{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ids
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func (a AllowList) Allowed(userID int64) bool {
	_, ok := a[userID]
	return ok
}
