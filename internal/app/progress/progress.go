// Package progress computes the experience score shown on the dashboard.
package progress

// XP awards 10 points per session report, 5 per goal, 10 per journal
// entry, and 15 once any chat session has been completed.
func XP(reports, goals, journalEntries int, hasChatted bool) int {
	xp := reports*10 + goals*5 + journalEntries*10
	if hasChatted {
		xp += 15
	}
	return xp
}
