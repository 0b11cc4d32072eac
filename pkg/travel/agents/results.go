package agents

// Domain names one specialized agent.
type Domain string

const (
	DomainFlight     Domain = "flight"
	DomainHotel      Domain = "hotel"
	DomainRestaurant Domain = "restaurant"
	DomainActivity   Domain = "activity"
	DomainWeather    Domain = "weather"
)

// Domains lists every domain in report order.
func Domains() []Domain {
	return []Domain{DomainFlight, DomainHotel, DomainRestaurant, DomainActivity, DomainWeather}
}

// AgentName is the name the agent is registered and reported under.
func (d Domain) AgentName() string {
	return string(d) + "_agent"
}

// DomainResult is the outcome of one specialized agent run: one of
// *FlightResult, *HotelResult, *RestaurantResult, *ActivityResult,
// *WeatherResult or *Failed.
type DomainResult interface {
	Domain() Domain
	// Raw returns the records returned by the agent's search tool, if any.
	Raw() map[string]any
	isDomainResult()
}

type FlightResult struct {
	Origin        string           `json:"origin" yaml:"origin" jsonschema:"description=Departure city or airport code"`
	Destination   string           `json:"destination" yaml:"destination" jsonschema:"description=Arrival city or airport code"`
	DepartureDate string           `json:"departure_date" yaml:"departure_date" jsonschema:"description=Departure date (YYYY-MM-DD)"`
	Flights       []map[string]any `json:"flights" yaml:"flights" jsonschema:"description=Flight options with airline and times and price"`
	TotalDuration string           `json:"total_duration" yaml:"total_duration"`
	EstimatedCost string           `json:"estimated_cost" yaml:"estimated_cost"`

	raw map[string]any
}

type HotelResult struct {
	Location   string           `json:"location" yaml:"location" jsonschema:"description=City or area searched"`
	CheckIn    string           `json:"check_in" yaml:"check_in" jsonschema:"description=Check-in date (YYYY-MM-DD)"`
	CheckOut   string           `json:"check_out" yaml:"check_out" jsonschema:"description=Check-out date (YYYY-MM-DD)"`
	Hotels     []map[string]any `json:"hotels" yaml:"hotels" jsonschema:"description=Recommended hotels"`
	PriceRange string           `json:"price_range" yaml:"price_range"`

	raw map[string]any
}

type RestaurantResult struct {
	Location     string           `json:"location" yaml:"location"`
	Restaurants  []map[string]any `json:"restaurants" yaml:"restaurants" jsonschema:"description=Recommended restaurants"`
	CuisineTypes []string         `json:"cuisine_types" yaml:"cuisine_types"`

	raw map[string]any
}

type ActivityResult struct {
	Location   string           `json:"location" yaml:"location"`
	Activities []map[string]any `json:"activities" yaml:"activities" jsonschema:"description=Recommended activities and attractions"`
	Categories []string         `json:"categories" yaml:"categories"`

	raw map[string]any
}

// WeatherResult is the weather agent's report: a prose summary plus whatever
// structured details the agent chose to keep.
type WeatherResult struct {
	Location string         `json:"location" yaml:"location"`
	Summary  string         `json:"summary" yaml:"summary" jsonschema:"description=Conditions and forecast with packing and activity advice"`
	Details  map[string]any `json:"details,omitempty" yaml:"details,omitempty"`

	raw map[string]any
}

// Failed reports that the agent could not find satisfactory results.
type Failed struct {
	Reason string `json:"reason" yaml:"reason" jsonschema:"description=Why no satisfactory result was found"`

	domain Domain
}

// NewFailed returns a failure of the given domain.
func NewFailed(d Domain, reason string) *Failed {
	return &Failed{Reason: reason, domain: d}
}

func (r *FlightResult) Domain() Domain     { return DomainFlight }
func (r *HotelResult) Domain() Domain      { return DomainHotel }
func (r *RestaurantResult) Domain() Domain { return DomainRestaurant }
func (r *ActivityResult) Domain() Domain   { return DomainActivity }
func (r *WeatherResult) Domain() Domain    { return DomainWeather }
func (r *Failed) Domain() Domain           { return r.domain }

func (r *FlightResult) Raw() map[string]any     { return r.raw }
func (r *HotelResult) Raw() map[string]any      { return r.raw }
func (r *RestaurantResult) Raw() map[string]any { return r.raw }
func (r *ActivityResult) Raw() map[string]any   { return r.raw }
func (r *WeatherResult) Raw() map[string]any    { return r.raw }
func (r *Failed) Raw() map[string]any           { return nil }

func (r *FlightResult) setRaw(m map[string]any)     { r.raw = m }
func (r *HotelResult) setRaw(m map[string]any)      { r.raw = m }
func (r *RestaurantResult) setRaw(m map[string]any) { r.raw = m }
func (r *ActivityResult) setRaw(m map[string]any)   { r.raw = m }
func (r *WeatherResult) setRaw(m map[string]any)    { r.raw = m }

func (*FlightResult) isDomainResult()     {}
func (*HotelResult) isDomainResult()      {}
func (*RestaurantResult) isDomainResult() {}
func (*ActivityResult) isDomainResult()   {}
func (*WeatherResult) isDomainResult()    {}
func (*Failed) isDomainResult()           {}

// IsSuccess reports whether r is a success variant.
func IsSuccess(r DomainResult) bool {
	switch r.(type) {
	case *FlightResult, *HotelResult, *RestaurantResult, *ActivityResult, *WeatherResult:
		return true
	case *Failed:
		return false
	default:
		return false
	}
}

type successResult interface {
	DomainResult
	setRaw(map[string]any)
	// reconcile overwrites the fields the search tool echoes with the searched
	// values and returns the keys whose answered value differed.
	reconcile(raw map[string]any) []string
}

func (r *FlightResult) reconcile(raw map[string]any) []string {
	var drifted []string
	echo(raw, "origin", &r.Origin, &drifted)
	echo(raw, "destination", &r.Destination, &drifted)
	echo(raw, "departure_date", &r.DepartureDate, &drifted)
	return drifted
}

func (r *HotelResult) reconcile(raw map[string]any) []string {
	var drifted []string
	echo(raw, "location", &r.Location, &drifted)
	echo(raw, "check_in", &r.CheckIn, &drifted)
	echo(raw, "check_out", &r.CheckOut, &drifted)
	return drifted
}

func (r *RestaurantResult) reconcile(raw map[string]any) []string {
	var drifted []string
	echo(raw, "location", &r.Location, &drifted)
	return drifted
}

func (r *ActivityResult) reconcile(raw map[string]any) []string {
	var drifted []string
	echo(raw, "location", &r.Location, &drifted)
	return drifted
}

func (r *WeatherResult) reconcile(raw map[string]any) []string {
	var drifted []string
	echo(raw, "location", &r.Location, &drifted)
	return drifted
}

// echo copies the searched value of key into dst. Empty searched values are
// left alone.
func echo(raw map[string]any, key string, dst *string, drifted *[]string) {
	searched, _ := raw[key].(string)
	if searched == "" {
		return
	}
	if *dst != searched {
		*drifted = append(*drifted, key)
		*dst = searched
	}
}

var (
	_ successResult = (*FlightResult)(nil)
	_ successResult = (*HotelResult)(nil)
	_ successResult = (*RestaurantResult)(nil)
	_ successResult = (*ActivityResult)(nil)
	_ successResult = (*WeatherResult)(nil)
	_ DomainResult  = (*Failed)(nil)
)
