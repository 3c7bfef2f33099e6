// Package record defines the canonical record types that every extraction
// adapter normalizes into. These structs are the contract between adapters
// and the publish writer: adapters output these, the writer persists them.
//
// JSON field names are the persisted document schema read by the display
// surface. Anything that must not reach the store (category tag, source
// name, counters) lives outside these structs, on Envelope.
package record

import "fmt"

// Category is the persisted record kind and the prefix of every document key.
type Category string

const (
	CategoryTeam      Category = "equipo"
	CategoryFixtures  Category = "lista_partidos"
	CategoryStandings Category = "clasificacion"
	CategoryPlayer    Category = "jugador"
)

// Record is the tagged union over the four persisted variants.
// The unexported method seals it to this package.
type Record interface {
	Category() Category
	Name() string
	record()
}

// Envelope pairs a record with the run-local metadata that is stripped
// before persistence.
type Envelope struct {
	Source string
	Type   SourceType
	Record Record
}

// String is the envelope's display label for logs.
func (e Envelope) String() string {
	return fmt.Sprintf("%s/%s (%s)", e.Record.Category(), e.Record.Name(), e.Source)
}

// --------------------------------------------------------------------------
// Team summary
// --------------------------------------------------------------------------

// LastMatch is the most recent finished match of a tracked team.
type LastMatch struct {
	HomeTeam string `json:"local,omitempty"`
	AwayTeam string `json:"visitante,omitempty"`
	Opponent string `json:"rival,omitempty"`
	Date     string `json:"fecha"`
	Score    string `json:"resultado"`
	Round    string `json:"jornada,omitempty"`
}

// NextMatch is the first unplayed fixture of a tracked team.
type NextMatch struct {
	Opponent string `json:"rival"`
	Date     string `json:"fecha"`
	Time     string `json:"hora"`
	Round    string `json:"jornada,omitempty"`
}

// TeamSummary is the "equipo" document: last result and next fixture.
type TeamSummary struct {
	TeamName string     `json:"nombre"`
	Last     *LastMatch `json:"ultimo,omitempty"`
	Next     *NextMatch `json:"proximo,omitempty"`
}

func (*TeamSummary) Category() Category { return CategoryTeam }
func (t *TeamSummary) Name() string     { return t.TeamName }
func (*TeamSummary) record()            {}

// --------------------------------------------------------------------------
// Fixture list
// --------------------------------------------------------------------------

// Fixture is one row of a fixture list. TimeOrScore holds the kickoff time
// for unplayed matches and the score for played ones.
type Fixture struct {
	Date        string `json:"fecha"`
	TimeOrScore string `json:"resultado_hora"`
	HomeTeam    string `json:"equipo_1"`
	AwayTeam    string `json:"equipo_2"`
}

// FixtureList is the "lista_partidos" document.
type FixtureList struct {
	TeamKey string    `json:"nombre"`
	Matches []Fixture `json:"partidos"`
}

func (*FixtureList) Category() Category { return CategoryFixtures }
func (f *FixtureList) Name() string     { return f.TeamKey }
func (*FixtureList) record()            {}

// --------------------------------------------------------------------------
// Standings
// --------------------------------------------------------------------------

// Split is a home-only or away-only slice of a standings row.
type Split struct {
	Played int `json:"Jugados"`
	Won    int `json:"Ganados"`
	Drawn  int `json:"Empatados"`
	Lost   int `json:"Perdidos"`
}

// StandingsRow is one team's line in a league table.
type StandingsRow struct {
	Position     int    `json:"posicion,omitempty"`
	TeamName     string `json:"nombre"`
	Played       int    `json:"Jugados"`
	Won          int    `json:"Ganados"`
	Drawn        int    `json:"Empatados"`
	Lost         int    `json:"Perdidos"`
	GoalsFor     int    `json:"GolesFavor"`
	GoalsAgainst int    `json:"GolesContra"`
	Home         *Split `json:"casa,omitempty"`
	Away         *Split `json:"fuera,omitempty"`
}

// StandingsTable is the "clasificacion" document. TeamKey holds the
// source's display name.
type StandingsTable struct {
	TeamKey string         `json:"nombre"`
	Rows    []StandingsRow `json:"tabla"`
}

func (*StandingsTable) Category() Category { return CategoryStandings }
func (s *StandingsTable) Name() string     { return s.TeamKey }
func (*StandingsTable) record()            {}

// --------------------------------------------------------------------------
// Player stats
// --------------------------------------------------------------------------

// PlayerStats is the "jugador" document. MatchesMissed is derived from the
// team's matches-played tally, never read from the page; it stays nil when
// the tally has no entry for the team, so a stored value is not merged over.
type PlayerStats struct {
	PlayerName            string `json:"nombre"`
	MatchesPlayed         int    `json:"PJ"`
	MatchesMissed         *int   `json:"NJ,omitempty"`
	Starts                int    `json:"Tit"`
	SubstituteAppearances int    `json:"Sup"`
	Goals                 int    `json:"Goles"`
	YellowCards           int    `json:"Am"`
	RedCards              int    `json:"Roj"`
}

func (*PlayerStats) Category() Category { return CategoryPlayer }
func (p *PlayerStats) Name() string     { return p.PlayerName }
func (*PlayerStats) record()            {}

// --------------------------------------------------------------------------
// Publish decision
// --------------------------------------------------------------------------

// Decision is the validation gate's verdict on one envelope.
type Decision struct {
	Envelope Envelope
	Accept   bool
	Reason   string
}
