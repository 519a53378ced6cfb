package models

// Clone returns a deep copy of the state. Every engine operation works on a
// clone so the caller's value is never modified.
func (s GameState) Clone() GameState {
	out := s
	if s.Players != nil {
		out.Players = make([]Player, len(s.Players))
		for i, p := range s.Players {
			p.Hand = append([]string(nil), p.Hand...)
			out.Players[i] = p
		}
	}
	if s.Properties != nil {
		out.Properties = make([]Property, len(s.Properties))
		for i, p := range s.Properties {
			p.UpgradePrices = append([]int(nil), p.UpgradePrices...)
			p.UpgradeIncomes = append([]int(nil), p.UpgradeIncomes...)
			out.Properties[i] = p
		}
	}
	return out
}

// RecomputeAssets sets every player's total assets to money plus the price of
// the properties they own.
func (s *GameState) RecomputeAssets() {
	owned := make(map[string]int, len(s.Players))
	for _, prop := range s.Properties {
		if prop.OwnerID != "" {
			owned[prop.OwnerID] += prop.Price
		}
	}
	for i := range s.Players {
		s.Players[i].TotalAssets = s.Players[i].Money + owned[s.Players[i].ID]
	}
}

// PlayerIndex returns the index of the player or -1
func (s *GameState) PlayerIndex(playerID string) int {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// Player returns a pointer into the player slice, nil when unknown
func (s *GameState) Player(playerID string) *Player {
	if i := s.PlayerIndex(playerID); i >= 0 {
		return &s.Players[i]
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is
func (s *GameState) CurrentPlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

// PropertyIndex returns the index of the property or -1
func (s *GameState) PropertyIndex(propertyID string) int {
	for i := range s.Properties {
		if s.Properties[i].ID == propertyID {
			return i
		}
	}
	return -1
}

// Property returns a pointer into the property slice, nil when unknown
func (s *GameState) Property(propertyID string) *Property {
	if i := s.PropertyIndex(propertyID); i >= 0 {
		return &s.Properties[i]
	}
	return nil
}

// DebuffCarrier returns the index of the player carrying the debuff or -1
func (s *GameState) DebuffCarrier() int {
	for i := range s.Players {
		if s.Players[i].Debuff != "" && s.Players[i].Debuff != DebuffNone {
			return i
		}
	}
	return -1
}

// Opponents returns the indexes of every player other than playerID
func (s *GameState) Opponents(playerID string) []int {
	out := make([]int, 0, len(s.Players))
	for i := range s.Players {
		if s.Players[i].ID != playerID {
			out = append(out, i)
		}
	}
	return out
}

// RichestOpponent returns the index of the opponent with the highest total
// assets, first in seat order on ties, or -1 when playing alone.
func (s *GameState) RichestOpponent(playerID string) int {
	best := -1
	for _, i := range s.Opponents(playerID) {
		if best < 0 || s.Players[i].TotalAssets > s.Players[best].TotalAssets {
			best = i
		}
	}
	return best
}

// YearsRemaining counts the settlements still ahead, the current year included
func (s *GameState) YearsRemaining() int {
	r := s.TotalYears - s.Year + 1
	if r < 0 {
		return 0
	}
	return r
}

// HasCard reports whether the card id is in the player's hand
func (p *Player) HasCard(cardID string) bool {
	for _, id := range p.Hand {
		if id == cardID {
			return true
		}
	}
	return false
}

// RemoveCard drops one copy of cardID from the hand
func (p *Player) RemoveCard(cardID string) bool {
	for i, id := range p.Hand {
		if id == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// HandFull reports whether the player is at the card cap
func (p *Player) HandFull() bool {
	return len(p.Hand) >= MaxHandSize
}

// HasDebuff reports whether the player carries the debuff
func (p *Player) HasDebuff() bool {
	return p.Debuff != "" && p.Debuff != DebuffNone
}

// ClearDebuff removes the debuff and its counter
func (p *Player) ClearDebuff() {
	p.Debuff = DebuffNone
	p.DebuffTurns = 0
}

// EffectiveIncomeMultiplier treats an unset multiplier as 1
func (p *Player) EffectiveIncomeMultiplier() float64 {
	if p.IncomeMultiplier <= 0 {
		return 1
	}
	return p.IncomeMultiplier
}

// EffectiveDiceMultiplier treats an unset multiplier as 1
func (p *Player) EffectiveDiceMultiplier() int {
	if p.DiceMultiplier <= 0 {
		return 1
	}
	return p.DiceMultiplier
}

// IsCPU reports whether the engine decides for this player
func (p *Player) IsCPU() bool {
	return p.Kind == ControlCPU
}

// Meta builds the slot listing entry for an envelope
func (e SaveEnvelope) Meta() SlotMeta {
	names := make([]string, 0, len(e.State.Players))
	for _, p := range e.State.Players {
		names = append(names, p.Name)
	}
	return SlotMeta{
		SlotID:  e.SlotID,
		Version: e.Version,
		SavedAt: e.SavedAt,
		GameID:  e.State.ID,
		Year:    e.State.Year,
		Month:   e.State.Month,
		Players: names,
	}
}
