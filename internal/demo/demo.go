// Package demo registers the learning-assistant routes served by
// `wayfinder serve` when no manifest is configured.
package demo

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/vango-dev/wayfinder/pkg/routepath"
	"github.com/vango-dev/wayfinder/pkg/router"
)

// RenderFunc displays an HTML fragment.
type RenderFunc func(ctx context.Context, html string) error

// Section is one area of the learning assistant.
type Section struct {
	Name   string
	Param  string
	Topics map[string]string
}

// Sections lists the topic areas with a short blurb per topic.
var Sections = []Section{
	{
		Name:  "astronomy",
		Param: "body",
		Topics: map[string]string{
			"sun":     "The star at the center of the solar system.",
			"mercury": "The smallest planet and the closest to the Sun.",
			"venus":   "The hottest planet, wrapped in thick clouds.",
			"earth":   "Home.",
			"mars":    "A cold desert world with the tallest volcano known.",
			"jupiter": "A gas giant with a storm larger than Earth.",
		},
	},
	{
		Name:  "physics",
		Param: "simulation",
		Topics: map[string]string{
			"elevator":   "Apparent weight in an accelerating elevator.",
			"pendulum":   "Period of a simple pendulum for small angles.",
			"projectile": "Range and height of a projectile without drag.",
		},
	},
	{
		Name:  "math",
		Param: "topic",
		Topics: map[string]string{
			"vectors":     "Magnitude, direction and the dot product.",
			"derivatives": "Rates of change and tangent lines.",
			"matrices":    "Linear maps written as grids of numbers.",
		},
	},
}

var pages = template.Must(template.New("home").Parse(
	`<h1>Learning assistant</h1><ul>{{range .}}<li><a href="/{{.Name}}/{{.First}}">{{.Name}}</a></li>{{end}}</ul>`))

func init() {
	template.Must(pages.New("topic").Parse(
		`<h1>{{.Section}}: {{.Topic}}</h1><p class="level">Level {{.Level}}</p>{{if .Blurb}}<p>{{.Blurb}}</p>{{else}}<p>No notes on {{.Topic}} yet.</p>{{end}}` +
			`<nav>{{range .Others}}<a href="/{{$.Section}}/{{.}}">{{.}}</a> {{end}}</nav>`))
	template.Must(pages.New("session").Parse(
		`<h1>Session {{.ID}}</h1><p>Step: {{if .Rest}}{{.Rest}}{{else}}start{{end}}</p>`))
	template.Must(pages.New("notfound").Parse(
		`<h1>Not found</h1><p>Nothing lives at {{.}}.</p><a href="/">Home</a>`))
}

const maxLevel = 3

// topicQuery is the query string a topic page accepts, e.g. ?level=2.
type topicQuery struct {
	Level int `query:"level"`
}

// Register adds the demo routes to r.
func Register(r *router.Router, render RenderFunc) {
	r.Route("/", func(ctx context.Context, _ *router.Request) error {
		type link struct{ Name, First string }
		links := make([]link, 0, len(Sections))
		for _, s := range Sections {
			links = append(links, link{Name: s.Name, First: topicNames(s)[0]})
		}
		return execute(ctx, render, "home", links)
	}, router.WithOption("title", "Home"))

	for _, s := range Sections {
		s := s
		r.Route("/"+s.Name+"/:"+s.Param, func(ctx context.Context, req *router.Request) error {
			q := topicQuery{Level: 1}
			if err := req.Bind(&q); err != nil {
				return err
			}
			if q.Level < 1 || q.Level > maxLevel {
				return fmt.Errorf("level %d out of range 1-%d", q.Level, maxLevel)
			}

			topic := req.Params[s.Param]
			var others []string
			for _, name := range topicNames(s) {
				if name != topic {
					others = append(others, name)
				}
			}
			return execute(ctx, render, "topic", map[string]any{
				"Section": s.Name,
				"Topic":   topic,
				"Level":   q.Level,
				"Blurb":   s.Topics[topic],
				"Others":  others,
			})
		}, router.WithOption("title", s.Name), router.WithOption("section", s.Name))
	}

	// The wildcard pattern also catches paths of any other depth, so the
	// handler checks the URL itself.
	session := func(ctx context.Context, req *router.Request) error {
		segs := routepath.Segments(req.Route.URL)
		if len(segs) < 2 || segs[0] != "sessions" {
			return execute(ctx, render, "notfound", req.Route.URL)
		}
		return execute(ctx, render, "session", map[string]string{
			"ID":   segs[1],
			"Rest": strings.Join(segs[2:], "/"),
		})
	}
	r.Route("/sessions/:id/:step", session, router.WithOption("title", "Session"))
	r.Route("/sessions/:id/*", session, router.WithOption("title", "Session"))

	r.NotFound(func(ctx context.Context, req *router.Request) error {
		return execute(ctx, render, "notfound", req.Params["path"])
	}, router.WithOption("title", "Not found"))
}

func topicNames(s Section) []string {
	names := make([]string, 0, len(s.Topics))
	for name := range s.Topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func execute(ctx context.Context, render RenderFunc, name string, data any) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	return render(ctx, buf.String())
}
