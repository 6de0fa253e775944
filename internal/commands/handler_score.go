package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-realm/internal/game"
)

const scoreTemplate = `{{ repeat 40 "-" }}
{{ .Name | upper }}
  Health:   {{ .CurrentHP }}/{{ .MaxHP }}
  Strength: {{ .Str }}  Dexterity: {{ .Dex }}  Constitution: {{ .Con }}
  Wielding: {{ .Weapon }}
{{- if .Effects }}
  Effects:  {{ join ", " .Effects }}
{{- end }}
{{ repeat 40 "-" }}`

type scoreData struct {
	Name      string
	CurrentHP int
	MaxHP     int
	Str       int
	Dex       int
	Con       int
	Weapon    string
	Effects   []string
}

// score renders the actor's stat sheet.
func (r *Registry) score(ctx context.Context, actor *game.Entity, args string) error {
	data := scoreData{
		Name:      actor.Name,
		CurrentHP: actor.CurrentHP,
		MaxHP:     actor.MaxHP,
		Str:       actor.Stat(game.StatSTR),
		Dex:       actor.Stat(game.StatDEX),
		Con:       actor.Stat(game.StatCON),
		Weapon:    actor.Weapon().Name,
	}
	for _, ae := range actor.Effects {
		data.Effects = append(data.Effects, ae.Effect.Name)
	}

	out, err := ExpandTemplate(scoreTemplate, data)
	if err != nil {
		return fmt.Errorf("rendering score: %w", err)
	}
	r.send(actor.ID, "info", out)
	return nil
}
