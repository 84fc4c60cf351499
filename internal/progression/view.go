package progression

import "context"

// ProfileView is the read model served to clients.
type ProfileView struct {
	Stats            GamificationStats `json:"stats"`
	Level            Level             `json:"level"`
	NextLevel        *Level            `json:"next_level,omitempty"`
	ProgressPercent  float64           `json:"progress_percent"`
	ActiveChallenges []Challenge       `json:"active_challenges"`
	UnlockedBadges   []Badge           `json:"unlocked_badges"`
	LockedBadges     []Badge           `json:"locked_badges"`
}

// Profile brings the user's state up to date and returns its view.
func (s *Service) Profile(ctx context.Context, userID string) (ProfileView, error) {
	res, err := s.Sync(ctx, userID)
	if err != nil {
		return ProfileView{}, err
	}
	return s.buildView(res.Stats), nil
}

func (s *Service) buildView(stats GamificationStats) ProfileView {
	table := s.ledger.Levels()
	current := table.Resolve(stats.TotalXP)
	view := ProfileView{
		Stats:            stats,
		Level:            current,
		ProgressPercent:  table.ProgressToNext(stats.TotalXP),
		ActiveChallenges: ActiveChallenges(stats.Challenges, s.clock.Now()),
		UnlockedBadges:   []Badge{},
		LockedBadges:     []Badge{},
	}
	if next, ok := table.Next(current.Level); ok {
		view.NextLevel = &next
	}
	for _, b := range stats.Badges {
		if b.Unlocked {
			view.UnlockedBadges = append(view.UnlockedBadges, b)
		} else {
			view.LockedBadges = append(view.LockedBadges, b)
		}
	}
	return view
}
