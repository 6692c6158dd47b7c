package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mcoot/moonfall/internal/api/response"
	"github.com/mcoot/moonfall/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Game:
		o.printGame(v)
	case response.SessionResponse:
		o.printSession(v)
	case response.Player:
		o.printPlayer(v)
	case response.MeResponse:
		o.printMe(v)
	case response.ResolveResponse:
		o.printResolve(v)
	case response.PowerResponse:
		o.printPower(v)
	case model.Purchase:
		fmt.Fprintf(o.w, "Bought %s for %d points\n", v.Item, v.Cost)
	case response.CatalogResponse:
		o.printCatalog(v)
	case response.HealthResponse:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printSession(s response.SessionResponse) {
	fmt.Fprintf(o.w, "Joined %s as %s\n", s.Game.Code, s.PlayerID)
	fmt.Fprintf(o.w, "Token: %s\n", s.SessionToken)
	o.printGame(s.Game)
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "%s (%s)%s\n", p.DisplayName, p.ID, playerTags(p))
}

func playerTags(p response.Player) string {
	var tags []string
	switch {
	case p.IsModerator:
		tags = append(tags, "moderator")
	case p.Role != "":
		tags = append(tags, string(p.Role))
	}
	if p.IsBot {
		tags = append(tags, "bot")
	}
	if !p.Alive && p.DeathReason != "" {
		tags = append(tags, "dead: "+string(p.DeathReason))
	}
	if p.LoverID != "" {
		tags = append(tags, "lover of "+p.LoverID)
	}
	if p.Points > 0 {
		tags = append(tags, fmt.Sprintf("%d pts", p.Points))
	}
	if len(tags) == 0 {
		return ""
	}
	return " [" + strings.Join(tags, ", ") + "]"
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s (%s)\n", g.Name, g.Code)
	fmt.Fprintf(o.w, "Status: %s", g.Status)
	if g.Phase > 0 {
		fmt.Fprintf(o.w, " (phase %d)", g.Phase)
	}
	fmt.Fprintln(o.w)
	if g.Deadline != nil {
		fmt.Fprintf(o.w, "Deadline: %s\n", g.Deadline.Format("15:04:05"))
	}
	if g.Winner != model.FactionNone {
		fmt.Fprintf(o.w, "Winner: %s\n", g.Winner)
	}

	fmt.Fprintf(o.w, "Players (%d):\n", len(g.Players))
	for _, p := range g.Players {
		fmt.Fprint(o.w, "  - ")
		o.printPlayer(p)
	}

	if len(g.Votes) > 0 {
		fmt.Fprintln(o.w, "Votes:")
		for _, v := range g.Votes {
			target := "abstain"
			if v.Target != nil {
				target = *v.Target
			}
			fmt.Fprintf(o.w, "  %s -> %s (%s)\n", v.Voter, target, v.Type)
		}
	}

	for _, item := range g.Items {
		if !item.Used {
			fmt.Fprintf(o.w, "Holding: %s\n", item.Item)
		}
	}
}

func (o *Output) printMe(m response.MeResponse) {
	o.printPlayer(m.Player)

	voteTypes := make([]string, 0, len(m.VoteTargets))
	for t := range m.VoteTargets {
		voteTypes = append(voteTypes, string(t))
	}
	sort.Strings(voteTypes)
	for _, t := range voteTypes {
		targets := m.VoteTargets[model.VoteType(t)]
		ids := make([]string, len(targets))
		for i, id := range targets {
			ids[i] = string(id)
		}
		fmt.Fprintf(o.w, "Can vote (%s): %s\n", t, strings.Join(ids, ", "))
	}

	if len(m.AllowedTransitions) > 0 {
		next := make([]string, len(m.AllowedTransitions))
		for i, s := range m.AllowedTransitions {
			next[i] = string(s)
		}
		fmt.Fprintf(o.w, "Next phase: %s\n", strings.Join(next, ", "))
	}
}

func (o *Output) printResolve(r response.ResolveResponse) {
	switch {
	case r.Night != nil:
		switch {
		case r.Night.Saved:
			fmt.Fprintln(o.w, "The wolves' victim was saved")
		case r.Night.Victim != nil:
			fmt.Fprintf(o.w, "The wolves killed %s\n", *r.Night.Victim)
		default:
			fmt.Fprintln(o.w, "Nobody was killed")
		}
		for _, d := range r.Night.Deaths {
			fmt.Fprintf(o.w, "  %s died (%s), was %s\n", d.PlayerID, d.Reason, d.Role)
		}
	case r.Day != nil:
		switch {
		case r.Day.Eliminated != nil:
			fmt.Fprintf(o.w, "The village eliminated %s, who was %s\n", *r.Day.Eliminated, r.Day.RevealedRole)
		case r.Day.Immune != nil:
			fmt.Fprintf(o.w, "%s was immune\n", *r.Day.Immune)
		default:
			fmt.Fprintln(o.w, "Nobody was eliminated")
		}
	}

	for _, a := range r.BotActions {
		target := "abstain"
		if a.Target != nil {
			target = string(*a.Target)
		}
		fmt.Fprintf(o.w, "Bot %s voted %s (%s)\n", a.PlayerID, target, a.Type)
	}
	fmt.Fprintln(o.w)
	o.printGame(r.Game)
}

func (o *Output) printPower(p response.PowerResponse) {
	fmt.Fprintf(o.w, "Used %s on %s\n", p.Power, strings.Join(p.Targets, ", "))
	keys := make([]string, 0, len(p.Result))
	for k := range p.Result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(o.w, "  %s: %v\n", k, p.Result[k])
	}
	for _, d := range p.Deaths {
		fmt.Fprintf(o.w, "  %s died (%s)\n", d.PlayerID, d.Reason)
	}
	if p.Winner != model.FactionNone {
		fmt.Fprintf(o.w, "Winner: %s\n", p.Winner)
	}
}

func (o *Output) printCatalog(c response.CatalogResponse) {
	fmt.Fprintln(o.w, "Roles:")
	for _, r := range c.Roles {
		powers := make([]string, len(r.Powers))
		for i, p := range r.Powers {
			powers[i] = string(p)
		}
		fmt.Fprintf(o.w, "  %-12s %-8s %s\n", r.ID, r.Team, strings.Join(powers, ", "))
	}
	fmt.Fprintln(o.w, "Shop:")
	for _, i := range c.Items {
		fmt.Fprintf(o.w, "  %-12s %d pts\n", i.ID, i.Cost)
	}
}
