package coordinator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"

	"github.com/go-go-golems/itinerant/pkg/travel/agents"
)

// Report truncation limits.
const (
	maxPlaces      = 3
	maxWebResults  = 3
	maxListEntries = 5
)

const reportTemplate = `# 🌍 Multi-Agent Travel Plan

## 📋 Trip Overview
- **Query**: {{ .Query | default "N/A" }}
- **Destination**: {{ .Destination | default "N/A" }}
- **Duration**: {{ .Duration | default "N/A" }}

---

{{ range .Sections }}## {{ .Heading }}
{{ if .Success }}*Provided by {{ .Agent }}*

{{ .Body }}

{{ else }}*{{ .Missing }}*

{{ end }}{{ end }}{{ if .Days }}## 📅 Daily Itinerary
{{ range $i, $day := .Days }}### Day {{ add1 $i }}
{{ $day }}

{{ end }}{{ end }}{{ with .Cost }}## 💰 Estimated Total Cost
{{ . }}

{{ end }}---
*Generated by Multi-Agent Travel Planning System*
*🤖 Agents: Flight • Hotel • Restaurant • Activity • Weather • Coordinator*`

var report = template.Must(template.New("report").Funcs(sprig.TxtFuncMap()).Parse(reportTemplate))

type section struct {
	Heading string
	Agent   string
	Success bool
	Body    string
	Missing string
}

var sectionMeta = map[agents.Domain]struct{ heading, agent, missing string }{
	agents.DomainFlight:     {"✈️ Flight Recommendations", "Flight Agent", "No flight recommendations available"},
	agents.DomainHotel:      {"🏨 Hotel Recommendations", "Hotel Agent", "No hotel recommendations available"},
	agents.DomainRestaurant: {"🍽️ Restaurant Recommendations", "Restaurant Agent", "No restaurant recommendations available"},
	agents.DomainActivity:   {"🎯 Activity Recommendations", "Activity Agent", "No activity recommendations available"},
	agents.DomainWeather:    {"🌤️ Weather Forecast", "Weather Agent", "No weather information available"},
}

// RenderReport formats plan as markdown. Sections appear in a fixed order and
// only for the domains that were delegated.
func RenderReport(plan *TravelPlan) (string, error) {
	if plan == nil {
		return "", errors.New("no travel plan")
	}
	data := struct {
		Query, Destination, Duration, Cost string
		Sections                           []section
		Days                               []string
	}{
		Query:       plan.Query,
		Destination: plan.Destination,
		Duration:    plan.Duration,
		Cost:        plan.TotalEstimatedCost,
	}
	for _, d := range agents.Domains() {
		rec := plan.Record(d)
		if rec == nil {
			continue
		}
		meta := sectionMeta[d]
		s := section{Heading: meta.heading, Agent: meta.agent, Missing: meta.missing, Success: rec.Success}
		if rec.Success {
			s.Body = formatSection(resultRecord(rec.Result))
		}
		data.Sections = append(data.Sections, s)
	}
	for _, day := range plan.DailyItinerary {
		data.Days = append(data.Days, formatSection(day))
	}

	var sb strings.Builder
	if err := report.Execute(&sb, data); err != nil {
		return "", errors.Wrap(err, "render travel report")
	}
	return sb.String(), nil
}

// orderedRecord keeps the key order of the value it was built from.
type orderedRecord struct {
	keys   []string
	values map[string]any
}

// resultRecord flattens a domain result and its raw tool records into one
// record: result fields first, then the raw keys in sorted order.
func resultRecord(r agents.DomainResult) orderedRecord {
	out := orderedRecord{values: map[string]any{}}
	if r == nil {
		return out
	}
	b, err := json.Marshal(r)
	if err == nil {
		out = decodeOrdered(b)
	}
	raw := r.Raw()
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if _, ok := out.values[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.keys = append(out.keys, k)
		out.values[k] = raw[k]
	}
	return out
}

func decodeOrdered(b []byte) orderedRecord {
	out := orderedRecord{values: map[string]any{}}
	dec := json.NewDecoder(bytes.NewReader(b))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return out
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return out
		}
		out.keys = append(out.keys, key)
		out.values[key] = v
	}
	return out
}

func sortedRecord(m map[string]any) orderedRecord {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return orderedRecord{keys: keys, values: m}
}

// formatSection renders a record, a list or a scalar as markdown.
func formatSection(v any) string {
	switch data := v.(type) {
	case map[string]any:
		return formatRecord(sortedRecord(data))
	case orderedRecord:
		return formatRecord(data)
	case []any:
		return formatList(data)
	case []string:
		items := make([]any, len(data))
		for i, s := range data {
			items[i] = s
		}
		return formatList(items)
	default:
		return fmt.Sprint(v)
	}
}

func formatRecord(r orderedRecord) string {
	if msg, ok := r.values["error"]; ok {
		return fmt.Sprintf("⚠️ %v", msg)
	}
	var sb strings.Builder
	for _, key := range r.keys {
		value := r.values[key]
		switch {
		case strings.HasPrefix(key, "google_places_"):
			places, _ := value.([]any)
			if len(places) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "**%s:**\n", label(key))
			for _, p := range head(places, maxPlaces) {
				place, _ := p.(map[string]any)
				fmt.Fprintf(&sb, "- %s (Rating: %s)\n", stringOr(place["name"], "Unknown"), stringOr(place["rating"], "N/A"))
			}
			sb.WriteString("\n")
		case key == "web_search_results":
			res, _ := value.(map[string]any)
			results, _ := res["results"].([]any)
			if len(results) == 0 {
				continue
			}
			sb.WriteString("**Web Search Results:**\n")
			for _, r := range head(results, maxWebResults) {
				item, _ := r.(map[string]any)
				fmt.Fprintf(&sb, "- [%s](%s)\n", stringOr(item["title"], "No title"), stringOr(item["url"], "#"))
			}
			sb.WriteString("\n")
		case strings.HasPrefix(key, "_"):
		default:
			switch val := value.(type) {
			case string, float64, int, bool:
				fmt.Fprintf(&sb, "**%s:** %v\n", label(key), val)
			case []any:
				if len(val) == 0 {
					continue
				}
				fmt.Fprintf(&sb, "**%s:**\n%s\n\n", label(key), formatList(val))
			}
		}
	}
	if sb.Len() == 0 {
		b, err := json.Marshal(r.values)
		if err != nil {
			return fmt.Sprint(r.values)
		}
		return string(b)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatList(items []any) string {
	lines := make([]string, 0, maxListEntries)
	for _, item := range head(items, maxListEntries) {
		lines = append(lines, "- "+listEntry(item))
	}
	return strings.Join(lines, "\n")
}

// listEntry shows a record by its name when it has one.
func listEntry(item any) string {
	m, ok := item.(map[string]any)
	if !ok {
		return fmt.Sprint(item)
	}
	if name, ok := m["name"]; ok {
		return fmt.Sprint(name)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprint(m)
	}
	return string(b)
}

func head(items []any, n int) []any {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func stringOr(v any, def string) string {
	if v == nil {
		return def
	}
	return fmt.Sprint(v)
}

// label turns a record key such as "check_in" or "weatherCondition" into a
// title-cased label.
func label(key string) string {
	words := strings.Fields(strcase.ToDelimited(key, ' '))
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
