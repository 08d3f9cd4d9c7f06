package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Fingerprint returns the cache key for a request: a SHA-256 hash of the
// canonicalized content. Collections are sorted before hashing so that two
// requests with identical content hash identically regardless of input
// order.
func Fingerprint(req ScheduleRequest) string {
	canonical := canonicalize(req)
	payload, err := json.Marshal(canonical)
	if err != nil {
		// The request is plain data; marshalling can only fail on
		// programmer error. Hash the zero payload rather than panic.
		payload = nil
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func canonicalize(req ScheduleRequest) ScheduleRequest {
	out := ScheduleRequest{
		Teachers: make([]Teacher, len(req.Teachers)),
		Rooms:    make([]Room, len(req.Rooms)),
		Classes:  make([]ClassDemand, len(req.Classes)),
		Limits:   req.Limits,
	}
	copy(out.Teachers, req.Teachers)
	copy(out.Rooms, req.Rooms)
	copy(out.Classes, req.Classes)

	for i, t := range out.Teachers {
		if len(t.Unavailable) > 1 {
			blocked := make([]Slot, len(t.Unavailable))
			copy(blocked, t.Unavailable)
			sort.Slice(blocked, func(a, b int) bool {
				if blocked[a].Day != blocked[b].Day {
					return blocked[a].Day < blocked[b].Day
				}
				return blocked[a].Period < blocked[b].Period
			})
			out.Teachers[i].Unavailable = blocked
		}
	}

	sort.Slice(out.Teachers, func(i, j int) bool { return out.Teachers[i].ID < out.Teachers[j].ID })
	sort.Slice(out.Rooms, func(i, j int) bool { return out.Rooms[i].ID < out.Rooms[j].ID })
	sort.Slice(out.Classes, func(i, j int) bool { return out.Classes[i].ID < out.Classes[j].ID })
	return out
}
