package record

// SourceType selects the extraction adapter for a source.
type SourceType string

const (
	SourceTeamSnapshot        SourceType = "team_snapshot"
	SourceLiveFixtures        SourceType = "live_fixtures"
	SourceFederationFixtures  SourceType = "federation_fixtures"
	SourceLeagueStandings     SourceType = "league_standings"
	SourceFederationStandings SourceType = "federation_standings"
	SourcePlayerSeason        SourceType = "player_season"
	SourceFederationPlayer    SourceType = "federation_player"
)

// SourceTypes lists every known type in catalog order.
var SourceTypes = []SourceType{
	SourceTeamSnapshot,
	SourceLiveFixtures,
	SourceFederationFixtures,
	SourceLeagueStandings,
	SourceFederationStandings,
	SourcePlayerSeason,
	SourceFederationPlayer,
}

// Phase orders extraction tasks. Every team-phase task completes before
// any player-phase task starts, because player records read the team
// matches-played tally.
type Phase int

const (
	PhaseTeam Phase = iota
	PhasePlayer
)

func (p Phase) String() string {
	if p == PhasePlayer {
		return "player"
	}
	return "team"
}

// Phase returns the execution phase for the source type.
func (t SourceType) Phase() Phase {
	switch t {
	case SourcePlayerSeason, SourceFederationPlayer:
		return PhasePlayer
	default:
		return PhaseTeam
	}
}

// ReportsPlayed reports whether sources of this type contribute a team
// matches-played count to the tally.
func (t SourceType) ReportsPlayed() bool {
	switch t {
	case SourceFederationFixtures, SourceLeagueStandings, SourceFederationStandings:
		return true
	default:
		return false
	}
}

// Source is the static configuration of one scrape target.
//
// Team is the tally key the source reports matches played for (team
// sources) or reads it from (player sources); it is also the document name
// for fixture lists and standings. Tracked is the team's name as the page
// spells it: the exact standings row label, or the substring that
// identifies the team in a fixture row. Display is the team's name as
// shown to readers of standings documents.
type Source struct {
	Name    string     `yaml:"name" validate:"required"`
	Type    SourceType `yaml:"type" validate:"required,source_type"`
	URL     string     `yaml:"url" validate:"required,url"`
	Team    string     `yaml:"team" validate:"required"`
	Tracked string     `yaml:"tracked,omitempty"`
	Display string     `yaml:"display,omitempty"`
}

// DisplayName is Display, or the team key when no display name is set.
func (s Source) DisplayName() string {
	if s.Display != "" {
		return s.Display
	}
	return s.Team
}
