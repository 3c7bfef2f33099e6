package extract

import "github.com/albapepper/futbol-tracker/internal/record"

// Output names one record a source can produce.
type Output struct {
	Category record.Category
	Name     string
}

// Outputs lists the records src can produce, which is what its document
// keys derive from.
func Outputs(src record.Source) []Output {
	switch src.Type {
	case record.SourceTeamSnapshot:
		return []Output{{record.CategoryTeam, src.Name}}
	case record.SourceLiveFixtures:
		return []Output{{record.CategoryFixtures, src.Team}}
	case record.SourceFederationFixtures:
		return []Output{{record.CategoryTeam, src.Name}, {record.CategoryFixtures, src.Team}}
	case record.SourceLeagueStandings, record.SourceFederationStandings:
		return []Output{{record.CategoryStandings, src.DisplayName()}}
	case record.SourcePlayerSeason, record.SourceFederationPlayer:
		return []Output{{record.CategoryPlayer, src.Name}}
	}
	return nil
}
