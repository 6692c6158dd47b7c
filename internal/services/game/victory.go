package game

import "github.com/mcoot/moonfall/internal/model"

// Evaluate decides the winning faction from the live roster. The moderator
// is only counted in auto mode. It returns FactionNone while play continues.
func Evaluate(players []model.Player, autoMode bool) model.Faction {
	wolves, others := 0, 0
	for i := range players {
		p := &players[i]
		if !p.Alive || (p.IsModerator && !autoMode) {
			continue
		}
		if p.Team() == model.FactionWolves {
			wolves++
		} else {
			others++
		}
	}

	switch {
	case wolves == 0 && others > 0:
		return model.FactionVillage
	case wolves > 0 && wolves >= others:
		return model.FactionWolves
	default:
		return model.FactionNone
	}
}
