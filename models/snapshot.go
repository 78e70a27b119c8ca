package models

import "time"

// Embedded copies (Player inside Team, Match inside Court.CurrentMatch) are
// point-in-time snapshots. Later edits of the source record are never
// propagated into them; these helpers are the only place such copies are made.

// SnapshotPlayer returns a deep copy of p.
func SnapshotPlayer(p Player) Player {
	cp := p
	cp.Phone = cloneString(p.Phone)
	cp.Email = cloneString(p.Email)
	cp.PhotoURL = cloneString(p.PhotoURL)
	return cp
}

// SnapshotTeam returns a deep copy of t.
func SnapshotTeam(t Team) Team {
	cp := Team{Player1: SnapshotPlayer(t.Player1)}
	if t.Player2 != nil {
		p2 := SnapshotPlayer(*t.Player2)
		cp.Player2 = &p2
	}
	return cp
}

// SnapshotMatch returns a deep copy of m.
func SnapshotMatch(m Match) Match {
	cp := m
	cp.TeamA = SnapshotTeam(m.TeamA)
	cp.TeamB = SnapshotTeam(m.TeamB)
	cp.CourtID = cloneString(m.CourtID)
	cp.StartTime = cloneTime(m.StartTime)
	cp.EndTime = cloneTime(m.EndTime)
	return cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
