package progression

// Migrate moves a persisted record forward to CurrentSchemaVersion. Catalog
// badges the record has never seen are appended locked; existing badges keep
// their unlock state. Nothing is removed.
func Migrate(stats GamificationStats, catalog []Badge, levels LevelTable) GamificationStats {
	out := stats.Clone()

	known := make(map[string]struct{}, len(out.Badges))
	for _, b := range out.Badges {
		known[b.ID] = struct{}{}
	}
	for _, b := range catalog {
		if _, ok := known[b.ID]; ok {
			continue
		}
		b = b.clone()
		b.Unlocked = false
		b.UnlockedAt = nil
		b.Requirement.Current = 0
		out.Badges = append(out.Badges, b)
	}

	if out.TotalXP < 0 {
		out.TotalXP = 0
	}
	if out.Level < 1 {
		out.Level = levels.Resolve(out.TotalXP).Level
	}
	if out.LongestStreak < out.CurrentStreak {
		out.LongestStreak = out.CurrentStreak
	}
	out.SchemaVersion = CurrentSchemaVersion
	return out
}
