/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"strconv"

	"github.com/Seednode/babybox/games/babynames"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// The first entry is the fallback when nothing else matches.
var supportedLanguages = []language.Tag{
	language.English,
	language.Spanish,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// English strings double as catalog keys.
var spanish = map[string]string{
	"boys":  "niños",
	"girls": "niñas",

	"Which name was most popular for %s in %s?":          "¿Cuál fue el nombre más popular para %s en el año %s?",
	"In which year was the name %s most popular?":        "¿En qué año fue más popular el nombre %s?",
	"In which year was the name %s most popular for %s?": "¿En qué año fue más popular el nombre %s para %s?",

	"Correct!":                     "¡Correcto!",
	"Incorrect":                    "Incorrecto",
	"The number of births was %d.": "El número de nacimientos fue %d.",
	"Score: %d/%d":                 "Puntuación: %d/%d",
	"Next":                         "Siguiente",
	"Play again":                   "Jugar otra vez",
	"Share":                        "Compartir",
	"Connecting…":                  "Conectando…",
	"Disconnected.":                "Desconectado.",

	"That answer was not accepted.":                                         "Esa respuesta no fue aceptada.",
	"There is not enough data to build a question. Please reload the page.": "No hay suficientes datos para crear una pregunta. Por favor, recarga la página.",
}

func init() {
	for key, msg := range spanish {
		if err := message.SetString(language.Spanish, key, msg); err != nil {
			panic(err)
		}
	}
}

// clientLanguage picks a supported language from ?lang= or Accept-Language.
func clientLanguage(r *http.Request) language.Tag {
	_, i := language.MatchStrings(languageMatcher, r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))

	return supportedLanguages[i]
}

func genderLabel(p *message.Printer, g babynames.Gender) string {
	if g == babynames.Female {
		return p.Sprintf("girls")
	}
	return p.Sprintf("boys")
}

func questionPrompt(p *message.Printer, q babynames.Question) string {
	if q.Kind == babynames.KindPopularYear {
		if q.Gender != "" {
			return p.Sprintf("In which year was the name %s most popular for %s?", q.Name, genderLabel(p, q.Gender))
		}
		return p.Sprintf("In which year was the name %s most popular?", q.Name)
	}

	// Years are passed as strings so they aren't digit-grouped.
	return p.Sprintf("Which name was most popular for %s in %s?", genderLabel(p, q.Gender), strconv.Itoa(q.Year))
}

func resultText(p *message.Printer, q babynames.Question, res babynames.Result) string {
	verdict := p.Sprintf("Incorrect")
	if res.Correct {
		verdict = p.Sprintf("Correct!")
	}

	return verdict + " " + p.Sprintf("The number of births was %d.", q.Correct.Count)
}

func scoreText(p *message.Printer, s babynames.Score) string {
	return p.Sprintf("Score: %d/%d", s.Correct, s.Total)
}

func clientLabels(p *message.Printer) map[string]string {
	return map[string]string{
		"next":         p.Sprintf("Next"),
		"play_again":   p.Sprintf("Play again"),
		"share":        p.Sprintf("Share"),
		"connecting":   p.Sprintf("Connecting…"),
		"disconnected": p.Sprintf("Disconnected."),
	}
}
