package snapshotgen

import (
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okian/xpts/internal/adapters/snapshot"
	"github.com/okian/xpts/internal/domain/model"
)

// playerNamespace scopes the deterministic player ids.
var playerNamespace = uuid.MustParse("6f1c2a1e-8d4b-4f0a-9a57-3b5d0c9e7e21")

var teamCodes = []string{
	"ARS", "AVL", "BOU", "BRE", "BHA", "BUR", "CHE", "CRY", "EVE", "FUL",
	"LEE", "LIV", "MCI", "MUN", "NEW", "NFO", "SUN", "TOT", "WHU", "WOL",
}

// Squad template, filled team by team: 2 GK, 7 DEF, 7 MID, 4 FWD.
var positionMix = []model.Position{
	model.PositionGoalkeeper, model.PositionGoalkeeper,
	model.PositionDefender, model.PositionDefender, model.PositionDefender, model.PositionDefender,
	model.PositionDefender, model.PositionDefender, model.PositionDefender,
	model.PositionMidfielder, model.PositionMidfielder, model.PositionMidfielder, model.PositionMidfielder,
	model.PositionMidfielder, model.PositionMidfielder, model.PositionMidfielder,
	model.PositionForward, model.PositionForward, model.PositionForward, model.PositionForward,
}

// Generate builds a snapshot document. The same Config always yields the same document.
func Generate(cfg Config) snapshot.Document {
	if cfg.Limits.Validate() != nil {
		cfg.Limits = model.DefaultLimits()
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // synthetic data

	nTeams := cfg.Teams
	if nTeams <= 0 || nTeams > len(teamCodes) {
		nTeams = len(teamCodes)
	}
	teams := make([]snapshot.Team, nTeams)
	for i := range teams {
		teams[i] = snapshot.Team{
			Name:                 teamCodes[i],
			ExpectedGoalsAgainst: round(uniform(rng, 0.7, 2.1), 2),
			AttackStrength:       round(uniform(rng, 0.8, 2.4), 2),
		}
	}

	players := make([]snapshot.Player, cfg.Players)
	for i := range players {
		team := teams[(i/len(positionMix))%nTeams]
		pos := positionMix[i%len(positionMix)]
		players[i] = generatePlayer(rng, i, team, pos, cfg.Limits)
	}

	return snapshot.Document{Gameweek: cfg.Gameweek, Teams: teams, Players: players}
}

func generatePlayer(rng *rand.Rand, index int, team snapshot.Team, pos model.Position, limits model.Limits) snapshot.Player {
	// Quality in [0,1) drives every attacking stat so rankings are not pure noise.
	quality := rng.Float64()

	minutes := make([]int, limits.MinutesLookback)
	regular := rng.Float64() < 0.25+0.7*quality
	for i := range minutes {
		switch {
		case regular && rng.Float64() < 0.9:
			minutes[i] = 60 + rng.IntN(31)
		case rng.Float64() < 0.5:
			minutes[i] = rng.IntN(60)
		}
	}

	fixtures := make([]float64, 1+rng.IntN(limits.FixtureLookback))
	for i := range fixtures {
		fixtures[i] = float64(1 + rng.IntN(5))
	}

	var xg, xa, creativity float64
	switch pos {
	case model.PositionForward:
		xg, xa, creativity = 0.15+0.6*quality, 0.05+0.2*quality, 15+45*quality
	case model.PositionMidfielder:
		xg, xa, creativity = 0.05+0.4*quality, 0.05+0.35*quality, 20+70*quality
	case model.PositionDefender:
		xg, xa, creativity = 0.01+0.1*quality, 0.01+0.15*quality, 5+35*quality
	default:
		creativity = rng.Float64() * 5
	}

	season := 0
	for _, m := range minutes {
		season += m
	}
	season *= 3

	price := decimal.NewFromFloat(4 + 9*quality).Round(1)
	if pos == model.PositionDefender || pos == model.PositionGoalkeeper {
		price = decimal.NewFromFloat(4 + 3*quality).Round(1)
	}

	id := uuid.NewSHA1(playerNamespace, []byte(strconv.Itoa(index))).String()
	return snapshot.Player{
		ID:                       id,
		Name:                     team.Name + " " + string(pos) + " " + strconv.Itoa(index+1),
		Team:                     team.Name,
		Position:                 string(pos),
		Price:                    price,
		MinutesHistory:           minutes,
		ExpectedGoalsPer90:       round(xg, 3),
		ExpectedAssistsPer90:     round(xa, 3),
		Creativity:               round(creativity, 1),
		ExpectedGoalsAgainstTeam: team.ExpectedGoalsAgainst,
		BonusPerMatch:            round(0.8*quality*rng.Float64(), 2),
		Form:                     round(10*quality*uniform(rng, 0.6, 1), 1),
		FixtureOpponentStrengths: fixtures,
		SelectedPercent:          round(60*quality*quality*rng.Float64(), 1),
		SeasonMinutes:            season,
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
