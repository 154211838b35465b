package schedule

import "sort"

// Conflict detection over instructor schedules. Two events conflict iff they
// share an instructor, fall on the same calendar date, and their [start, end)
// intervals overlap. Half-open intervals make back-to-back events (one ending
// exactly when the next starts) non-conflicting. Events with no instructor are
// exempt: there is no resource to double-book.
//
// Both functions are pure and never mutate their arguments; callers may hold
// the snapshot wherever they like and invoke them concurrently.

// overlaps is the half-open interval test. Times are zero-padded HH:MM, so
// string comparison is temporal comparison.
func overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}

type bucketKey struct {
	instructorID string
	date         string
}

// FindConflicts returns the IDs of every event implicated in at least one
// overlapping same-instructor, same-date pair, sorted for stable output. The
// result is symmetric: if A overlaps B, both appear.
func FindConflicts(events []TimedEvent) []string {
	// Bucket by (instructor, date) so the pairwise scan stays within buckets.
	buckets := make(map[bucketKey][]TimedEvent)
	for _, e := range events {
		if e.InstructorID == "" {
			continue
		}
		k := bucketKey{e.InstructorID, e.Date}
		buckets[k] = append(buckets[k], e)
	}

	conflicted := make(map[string]bool)
	for _, bucket := range buckets {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				a, b := bucket[i], bucket[j]
				if overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
					conflicted[a.ID] = true
					conflicted[b.ID] = true
				}
			}
		}
	}

	out := make([]string, 0, len(conflicted))
	for id := range conflicted {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FindConflictsFor returns the events that conflict with the candidate, for
// validating a single new or edited event before it is committed. excludeID
// lets an update-in-place check ignore the event's own prior version; pass ""
// for a create. An unassigned candidate never conflicts.
func FindConflictsFor(candidate TimedEvent, events []TimedEvent, excludeID string) []TimedEvent {
	if candidate.InstructorID == "" {
		return nil
	}

	var out []TimedEvent
	for _, e := range events {
		if e.ID == excludeID || e.ID == candidate.ID {
			continue
		}
		if e.InstructorID != candidate.InstructorID || e.Date != candidate.Date {
			continue
		}
		if overlaps(candidate.StartTime, candidate.EndTime, e.StartTime, e.EndTime) {
			out = append(out, e)
		}
	}
	return out
}
