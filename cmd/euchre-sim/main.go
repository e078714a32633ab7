// Command euchre-sim pits bot strategies against each other and reports how
// each partnership fared.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pterm/pterm"

	"euchre/internal/bot"
	"euchre/internal/domain"
)

func main() {
	games := flag.Int("games", 100, "number of games to play")
	seed := flag.Int64("seed", time.Now().UnixNano(), "shuffle seed")
	nsLevel := flag.String("ns", "hard", "north/south difficulty (easy or hard)")
	ewLevel := flag.String("ew", "easy", "east/west difficulty (easy or hard)")
	identities := flag.String("identities", "data/bot_identities.json", "bot identity file")
	verbose := flag.Bool("v", false, "print every game")
	flag.Parse()

	if *games <= 0 {
		fmt.Fprintf(os.Stderr, "usage: %s -games N [OPTIONS]\n", os.Args[0])
		os.Exit(1)
	}
	if err := bot.LoadIdentities(*identities); err != nil {
		pterm.Warning.Printfln("bot identities not loaded: %v", err)
	}

	levels := [2]bot.BotLevel{bot.LevelForDifficulty(*nsLevel), bot.LevelForDifficulty(*ewLevel)}
	rng := rand.New(rand.NewSource(*seed))
	pterm.Info.Printfln("Playing %d games (seed %d): N/S %s vs E/W %s", *games, *seed, *nsLevel, *ewLevel)

	bar, _ := pterm.DefaultProgressbar.WithTotal(*games).WithTitle("Self-play").Start()
	var stats Stats
	dealer := domain.Seat(0)
	for i := range *games {
		result, err := playGame(rng, dealer, levels)
		if err != nil {
			if bar != nil {
				bar.Stop()
			}
			pterm.Error.Printfln("game %d: %v", i+1, err)
			os.Exit(1)
		}
		stats.Add(result)
		if *verbose {
			pterm.Printfln("game %d: %s wins %d-%d in %d hands", i+1, teamName(result.Winner), result.Score[0], result.Score[1], result.Hands)
		}
		dealer = dealer.Next()
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Stop()
	}

	printStats(stats, *nsLevel, *ewLevel)
}

func teamName(p domain.Partnership) string {
	if p == 0 {
		return pterm.LightCyan("N/S")
	}
	return pterm.LightMagenta("E/W")
}

func printStats(s Stats, ns, ew string) {
	pct := func(n int) string {
		return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(s.Games))
	}
	data := pterm.TableData{
		{"Team", "Bots", "Wins", "Win rate", "Euchred", "Marches", "Alone marches"},
		{"N/S", ns, fmt.Sprint(s.Wins[0]), pct(s.Wins[0]), fmt.Sprint(s.Euchres[0]), fmt.Sprint(s.Marches[0]), fmt.Sprint(s.AloneWon[0])},
		{"E/W", ew, fmt.Sprint(s.Wins[1]), pct(s.Wins[1]), fmt.Sprint(s.Euchres[1]), fmt.Sprint(s.Marches[1]), fmt.Sprint(s.AloneWon[1])},
	}
	pterm.DefaultSection.Println("Results")
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Println(err)
	}
	pterm.Info.Printfln("%d games, %.1f hands per game, %d redeals", s.Games, float64(s.Hands)/float64(s.Games), s.Redeals)
}
