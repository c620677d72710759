// Command simulate replays a gesture script against the swipe engine offline
// and prints each step and the resulting decisions as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/news"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/swipe"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// step is one replayed event and what it produced.
type step struct {
	Event     swipe.Event   `json:"event"`
	Applied   bool          `json:"applied"`
	State     swipe.State   `json:"state"`
	Index     int           `json:"active_index"`
	Intensity float64       `json:"intensity"`
	Direction int           `json:"direction"`
	Outcome   types.Outcome `json:"outcome,omitempty"`
	Error     string        `json:"error,omitempty"`
}

type decision struct {
	ItemID  string        `json:"item_id"`
	Symbol  string        `json:"symbol"`
	Outcome types.Outcome `json:"outcome"`
}

type report struct {
	Steps     []step      `json:"steps"`
	Decisions []decision  `json:"decisions"`
	Final     swipe.State `json:"final_state"`
}

// demoScript swipes right past the threshold, releases one short drag, swipes
// left, skips the last card and then acts on the exhausted deck.
var demoScript = []swipe.Event{
	{Type: swipe.EventDragStart},
	{Type: swipe.EventDragMove, DX: 60, DY: 4},
	{Type: swipe.EventDragMove, DX: 140, DY: 10},
	{Type: swipe.EventDragEnd, DX: 140, DY: 10},
	{Type: swipe.EventDragStart},
	{Type: swipe.EventDragMove, DX: -50},
	{Type: swipe.EventDragEnd, DX: -50},
	{Type: swipe.EventDragStart},
	{Type: swipe.EventDragEnd, DX: -180, DY: 30},
	{Type: swipe.EventAction, Outcome: types.OutcomeSkip},
	{Type: swipe.EventAction, Outcome: types.OutcomeLong},
}

func main() {
	_ = godotenv.Load()

	scriptPath := flag.String("script", "", "JSON file with an array of events (default: built-in demo)")
	feedURL := flag.String("feed", os.Getenv("NEWS_FEED_URL"), "news feed URL (default: demo items)")
	exitTransition := flag.Bool("exit-transition", false, "hold each resolution until a settle event")
	flag.Parse()

	script := demoScript
	if *scriptPath != "" {
		data, err := os.ReadFile(*scriptPath)
		if err != nil {
			log.Fatalf("❌ Failed to read script: %v", err)
		}
		if err := json.Unmarshal(data, &script); err != nil {
			log.Fatalf("❌ Failed to parse script: %v", err)
		}
	}

	var src news.Source = news.StaticSource{Items: news.DemoItems()}
	if *feedURL != "" {
		src = news.NewHTTPSource(*feedURL)
	}
	items, err := src.Fetch(context.Background())
	if err != nil {
		log.Fatalf("❌ Failed to load news: %v", err)
	}

	var rep report
	record := func(outcome types.Outcome) func(types.DerivativeNews) {
		return func(item types.DerivativeNews) {
			rep.Decisions = append(rep.Decisions, decision{ItemID: item.ID, Symbol: item.Symbol, Outcome: outcome})
		}
	}
	cb := swipe.Callbacks{
		OnLong:  record(types.OutcomeLong),
		OnShort: record(types.OutcomeShort),
		OnSkip:  record(types.OutcomeSkip),
	}

	var opts []swipe.Option
	if *exitTransition {
		opts = append(opts, swipe.WithExitTransition())
	}
	deck := swipe.NewDeck("simulate", items, cb, opts...)

	log.Printf("🔄 Replaying %d events over %d items", len(script), len(items))
	for _, ev := range script {
		decided := len(rep.Decisions)
		applied, snap, err := deck.Apply(ev)
		s := step{
			Event:     ev,
			Applied:   applied,
			State:     snap.State,
			Index:     snap.ActiveIndex,
			Intensity: snap.Intensity,
			Direction: snap.Direction,
		}
		if len(rep.Decisions) > decided {
			s.Outcome = rep.Decisions[len(rep.Decisions)-1].Outcome
		}
		if err != nil {
			s.Error = err.Error()
		}
		rep.Steps = append(rep.Steps, s)
	}
	rep.Final = deck.Snapshot().State

	output, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("❌ Failed to marshal report: %v", err)
	}
	fmt.Println(string(output))
}
