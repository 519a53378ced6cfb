package cards

import (
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
)

func (e *effect) move() {
	switch e.card.Effect.Kind {
	case catalog.KindToDestination:
		dest := e.state.DestinationCityID
		if dest == "" || dest == e.player().Position {
			e.fail(outcome.CodeNoTarget)
			return
		}
		e.relocate(dest)
	case catalog.KindDoubleMove:
		e.player().DiceMultiplier = orDefault(e.card.Effect.Value, 2)
	case catalog.KindToCity:
		e.relocate(e.card.Effect.Target)
	case catalog.KindTeleport:
		if e.target.CityID == "" || !e.r.content.Board.HasCity(e.target.CityID) {
			e.fail(outcome.CodeNoTarget)
			return
		}
		e.relocate(e.target.CityID)
	case catalog.KindSteps:
		e.walk(e.card.Effect.Value)
	default:
		e.fail(outcome.CodeNoTarget)
	}
}

func (e *effect) relocate(city string) {
	p := e.player()
	if p.Position != city {
		p.PreviousCity = p.Position
	}
	p.Position = city
	e.res.Moved = true
	e.res.Path = append(e.res.Path, city)
}

// walk moves n cities along the board. Forward walks never turn back unless
// at a dead end; backward walks retrace the recorded previous city first and
// then keep going away from where they just were.
func (e *effect) walk(n int) {
	b := e.r.content.Board
	p := e.player()
	pos := p.Position
	left := ""
	prefer := ""
	if n < 0 {
		prefer = p.PreviousCity
		n = -n
	} else {
		left = p.PreviousCity
	}

	for i := 0; i < n; i++ {
		next := ""
		if prefer != "" && b.Adjacent(pos, prefer) {
			next = prefer
		} else {
			opts := b.ForwardOptions(pos, left)
			if len(opts) == 0 {
				break
			}
			next = opts[0]
		}
		prefer = ""
		left, pos = pos, next
		e.res.Path = append(e.res.Path, pos)
	}

	if len(e.res.Path) == 0 {
		e.fail(outcome.CodeNoTarget)
		return
	}
	p.PreviousCity = left
	p.Position = pos
	e.res.Moved = true
}
