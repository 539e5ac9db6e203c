package progress

import "github.com/mossfirth/hearthward/internal/model"

// LevelDefinition is one row of the static threshold table. Read-only
// reference data; not user-mutable.
type LevelDefinition struct {
	Level  int
	Name   string
	Badge  string
	Points int
}

// Levels is ordered ascending by Points. The first threshold must be 0 so
// every member has a level.
var Levels = []LevelDefinition{
	{Level: 1, Name: "Sprout", Badge: "🌱", Points: 0},
	{Level: 2, Name: "Helper", Badge: "🐝", Points: 50},
	{Level: 3, Name: "Achiever", Badge: "⭐", Points: 150},
	{Level: 4, Name: "Trailblazer", Badge: "🚀", Points: 300},
	{Level: 5, Name: "Hero", Badge: "🦸", Points: 500},
	{Level: 6, Name: "Champion", Badge: "🏆", Points: 750},
	{Level: 7, Name: "Legend", Badge: "🐉", Points: 1100},
	{Level: 8, Name: "Mythic", Badge: "👑", Points: 1500},
}

// ComputeLevel finds the highest level whose threshold is <= totalPoints and
// reports progress toward the next one. At the top level progress is clamped
// to 100 and points-to-next is 0.
func ComputeLevel(totalPoints int) model.LevelInfo {
	if totalPoints < 0 {
		totalPoints = 0
	}

	idx := 0
	for i, def := range Levels {
		if def.Points > totalPoints {
			break
		}
		idx = i
	}

	cur := Levels[idx]
	info := model.LevelInfo{
		Level: cur.Level,
		Name:  cur.Name,
		Badge: cur.Badge,
	}

	if idx == len(Levels)-1 {
		info.ProgressPercent = 100
		info.PointsToNext = 0
		return info
	}

	next := Levels[idx+1]
	span := next.Points - cur.Points
	info.ProgressPercent = (totalPoints - cur.Points) * 100 / span
	info.PointsToNext = next.Points - totalPoints
	return info
}
