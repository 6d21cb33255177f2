package main

import "sort"

type PlayerScore struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

// Stats is derived from a GameState and never carried across updates.
type Stats struct {
	Scores     map[string]int `json:"scores"`
	Ranking    []PlayerScore  `json:"ranking,omitempty"`
	TotalBoxes int            `json:"totalBoxes"`
	Completed  int            `json:"completed"`
	Remaining  int            `json:"remaining"`
	GameOver   bool           `json:"gameOver"`
	IsTie      bool           `json:"isTie"`
	WinnerID   string         `json:"winnerId,omitempty"`
}

// ComputeStats counts ownership straight from the boxes map.
func ComputeStats(gs *GameState) Stats {
	st := Stats{Scores: map[string]int{}}
	if gs == nil {
		return st
	}
	for _, p := range gs.Players {
		st.Scores[p.UserID] = 0
	}
	for _, b := range gs.Boxes {
		if b.Owner == "" {
			continue
		}
		st.Completed++
		st.Scores[b.Owner]++
	}
	st.TotalBoxes = TotalBoxes(gs.GridSize)
	st.Remaining = st.TotalBoxes - st.Completed
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	st.GameOver = st.TotalBoxes > 0 && st.Completed == st.TotalBoxes
	if !st.GameOver {
		return st
	}

	st.Ranking = make([]PlayerScore, 0, len(gs.Players))
	for _, p := range gs.Players {
		st.Ranking = append(st.Ranking, PlayerScore{UserID: p.UserID, Score: st.Scores[p.UserID]})
	}
	sort.SliceStable(st.Ranking, func(i, j int) bool {
		return st.Ranking[i].Score > st.Ranking[j].Score
	})
	switch {
	case len(st.Ranking) == 0:
	case len(st.Ranking) > 1 && st.Ranking[0].Score == st.Ranking[1].Score:
		st.IsTie = true
	default:
		st.WinnerID = st.Ranking[0].UserID
	}
	return st
}
