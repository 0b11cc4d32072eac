package coordinator

import (
	"regexp"
	"strconv"
	"sync"

	clone "github.com/huandu/go-clone"

	"github.com/go-go-golems/itinerant/pkg/travel/agents"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

// DelegationRecord is what a delegation hands back to the coordinator model.
type DelegationRecord struct {
	Agent   string              `json:"agent" yaml:"agent"`
	Query   string              `json:"query" yaml:"query"`
	Result  agents.DomainResult `json:"result" yaml:"result"`
	Success bool                `json:"success" yaml:"success"`
}

func newRecord(d agents.Domain, label string, res agents.DomainResult) DelegationRecord {
	return DelegationRecord{
		Agent:   d.AgentName(),
		Query:   label,
		Result:  res,
		Success: agents.IsSuccess(res),
	}
}

// Synthesis is the coordinator's final answer.
type Synthesis struct {
	Destination        string           `json:"destination" jsonschema:"description=Main destination of the trip"`
	Duration           string           `json:"duration" jsonschema:"description=Trip duration such as 5 days"`
	DailyItinerary     []map[string]any `json:"daily_itinerary" jsonschema:"description=One entry per day with times and places and meals"`
	TotalEstimatedCost string           `json:"total_estimated_cost,omitempty" jsonschema:"description=Estimated total cost of the trip"`
}

// TravelPlan is the result of one coordinator run. It is not modified after
// the run returns.
type TravelPlan struct {
	Query              string            `json:"query" yaml:"query"`
	Destination        string            `json:"destination" yaml:"destination"`
	Duration           string            `json:"duration" yaml:"duration"`
	Flights            *DelegationRecord `json:"flight_recommendations,omitempty" yaml:"flight_recommendations,omitempty"`
	Hotels             *DelegationRecord `json:"hotel_recommendations,omitempty" yaml:"hotel_recommendations,omitempty"`
	Restaurants        *DelegationRecord `json:"restaurant_recommendations,omitempty" yaml:"restaurant_recommendations,omitempty"`
	Activities         *DelegationRecord `json:"activity_recommendations,omitempty" yaml:"activity_recommendations,omitempty"`
	Weather            *DelegationRecord `json:"weather_forecast,omitempty" yaml:"weather_forecast,omitempty"`
	DailyItinerary     []map[string]any  `json:"daily_itinerary" yaml:"daily_itinerary"`
	TotalEstimatedCost string            `json:"total_estimated_cost,omitempty" yaml:"total_estimated_cost,omitempty"`
}

// Clone returns a deep copy of the plan, delegation results included.
func (p *TravelPlan) Clone() *TravelPlan {
	if p == nil {
		return nil
	}
	return clone.Clone(p).(*TravelPlan)
}

// Record returns the delegation record of domain d, or nil.
func (p *TravelPlan) Record(d agents.Domain) *DelegationRecord {
	switch d {
	case agents.DomainFlight:
		return p.Flights
	case agents.DomainHotel:
		return p.Hotels
	case agents.DomainRestaurant:
		return p.Restaurants
	case agents.DomainActivity:
		return p.Activities
	case agents.DomainWeather:
		return p.Weather
	default:
		return nil
	}
}

func (p *TravelPlan) setRecord(d agents.Domain, r *DelegationRecord) {
	switch d {
	case agents.DomainFlight:
		p.Flights = r
	case agents.DomainHotel:
		p.Hotels = r
	case agents.DomainRestaurant:
		p.Restaurants = r
	case agents.DomainActivity:
		p.Activities = r
	case agents.DomainWeather:
		p.Weather = r
	}
}

var leadingNumber = regexp.MustCompile(`^\s*(\d+)`)

// DurationDays extracts the number of days from a duration such as "5 days".
func DurationDays(duration string) (int, bool) {
	m := leadingNumber.FindStringSubmatch(duration)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// collector gathers the delegation records of one run. Delegations may
// execute in parallel.
type collector struct {
	mu      sync.Mutex
	records []DelegationRecord
	runs    []*turns.Run
}

func (c *collector) add(r DelegationRecord, run *turns.Run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	if run != nil {
		c.runs = append(c.runs, run)
	}
}

// last returns the most recent record of each domain.
func (c *collector) last() map[agents.Domain]DelegationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[agents.Domain]DelegationRecord{}
	for _, r := range c.records {
		if r.Result == nil {
			continue
		}
		out[r.Result.Domain()] = r
	}
	return out
}

func (c *collector) all() ([]DelegationRecord, []*turns.Run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DelegationRecord{}, c.records...), append([]*turns.Run{}, c.runs...)
}
