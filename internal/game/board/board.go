// Package board is the route graph between cities: the forward options at
// a junction and breadth-first distances between cities.
package board

import (
	"fmt"

	"github.com/kekopoly/dentetsu/internal/game/models"
)

const (
	// MaxSearchDepth caps breadth-first distance queries
	MaxSearchDepth = 10
	// Unreachable is the distance reported past the cap or with no path
	Unreachable = 99
)

// Neighbor is a city reachable over one route
type Neighbor struct {
	CityID  string
	RouteID string
}

// Board is the immutable city/route topology of a session
type Board struct {
	cities    []models.City
	routes    []models.Route
	cityIndex map[string]int
	routeByID map[string]int
	adjacency map[string][]Neighbor
}

// New builds a board, failing on duplicate ids or dangling route endpoints.
func New(cities []models.City, routes []models.Route) (*Board, error) {
	b := &Board{
		cities:    append([]models.City(nil), cities...),
		routes:    append([]models.Route(nil), routes...),
		cityIndex: make(map[string]int, len(cities)),
		routeByID: make(map[string]int, len(routes)),
		adjacency: make(map[string][]Neighbor, len(cities)),
	}

	for i, c := range b.cities {
		if _, dup := b.cityIndex[c.ID]; dup {
			return nil, fmt.Errorf("duplicate city id %q", c.ID)
		}
		b.cityIndex[c.ID] = i
	}

	for i, r := range b.routes {
		if _, dup := b.routeByID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate route id %q", r.ID)
		}
		if _, ok := b.cityIndex[r.From]; !ok {
			return nil, fmt.Errorf("route %s: unknown city %q", r.ID, r.From)
		}
		if _, ok := b.cityIndex[r.To]; !ok {
			return nil, fmt.Errorf("route %s: unknown city %q", r.ID, r.To)
		}
		b.routeByID[r.ID] = i
		b.adjacency[r.From] = append(b.adjacency[r.From], Neighbor{CityID: r.To, RouteID: r.ID})
		b.adjacency[r.To] = append(b.adjacency[r.To], Neighbor{CityID: r.From, RouteID: r.ID})
	}

	return b, nil
}

// City looks up a city by id
func (b *Board) City(id string) (models.City, bool) {
	i, ok := b.cityIndex[id]
	if !ok {
		return models.City{}, false
	}
	return b.cities[i], true
}

// HasCity reports whether the id names a city
func (b *Board) HasCity(id string) bool {
	_, ok := b.cityIndex[id]
	return ok
}

// Cities returns the cities in catalog order
func (b *Board) Cities() []models.City {
	return append([]models.City(nil), b.cities...)
}

// CityIDs returns the city ids in catalog order
func (b *Board) CityIDs() []string {
	ids := make([]string, len(b.cities))
	for i, c := range b.cities {
		ids[i] = c.ID
	}
	return ids
}

// Route looks up a route by id
func (b *Board) Route(id string) (models.Route, bool) {
	i, ok := b.routeByID[id]
	if !ok {
		return models.Route{}, false
	}
	return b.routes[i], true
}

// Neighbors returns the adjacent cities in route order
func (b *Board) Neighbors(cityID string) []Neighbor {
	return append([]Neighbor(nil), b.adjacency[cityID]...)
}

// RouteBetween returns the first route joining a and b
func (b *Board) RouteBetween(a, c string) (models.Route, bool) {
	for _, n := range b.adjacency[a] {
		if n.CityID == c {
			return b.Route(n.RouteID)
		}
	}
	return models.Route{}, false
}

// Adjacent reports whether one route joins the two cities
func (b *Board) Adjacent(a, c string) bool {
	_, ok := b.RouteBetween(a, c)
	return ok
}

// HasCardSquare reports whether a route carries at least one card square
func (b *Board) HasCardSquare(routeID string) bool {
	r, ok := b.Route(routeID)
	if !ok {
		return false
	}
	for _, sq := range r.Squares {
		if sq == models.SquareCard {
			return true
		}
	}
	return false
}

// IsShopCity reports whether the city hosts a card shop, either by its own
// flag or through a shop square on a route ending there.
func (b *Board) IsShopCity(cityID string) bool {
	c, ok := b.City(cityID)
	if !ok {
		return false
	}
	if c.Shop {
		return true
	}
	for _, n := range b.adjacency[cityID] {
		r := b.routes[b.routeByID[n.RouteID]]
		for _, sq := range r.Squares {
			if sq == models.SquareShop {
				return true
			}
		}
	}
	return false
}

// ForwardOptions lists the cities a traveller at cityID may step to without
// turning back to cameFrom. A dead end offers the way back.
func (b *Board) ForwardOptions(cityID, cameFrom string) []string {
	var out []string
	for _, n := range b.adjacency[cityID] {
		if n.CityID == cameFrom {
			continue
		}
		if !contains(out, n.CityID) {
			out = append(out, n.CityID)
		}
	}
	if len(out) == 0 && cameFrom != "" && b.Adjacent(cityID, cameFrom) {
		out = append(out, cameFrom)
	}
	return out
}

// IsJunction reports whether moving on from cityID requires a choice
func (b *Board) IsJunction(cityID, cameFrom string) bool {
	return len(b.ForwardOptions(cityID, cameFrom)) > 1
}

// Distance returns the breadth-first hop count between two cities, or
// Unreachable when no path exists within maxDepth hops.
func (b *Board) Distance(from, to string, maxDepth int) int {
	if from == to {
		return 0
	}
	if maxDepth <= 0 || maxDepth > MaxSearchDepth {
		maxDepth = MaxSearchDepth
	}
	if !b.HasCity(from) || !b.HasCity(to) {
		return Unreachable
	}

	visited := map[string]bool{from: true}
	frontier := []string{from}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, city := range frontier {
			for _, n := range b.adjacency[city] {
				if visited[n.CityID] {
					continue
				}
				if n.CityID == to {
					return depth
				}
				visited[n.CityID] = true
				next = append(next, n.CityID)
			}
		}
		frontier = next
	}
	return Unreachable
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
